package score

import (
	"reflect"
	"testing"

	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/query"
)

func TestRanker_Rank(t *testing.T) {
	terms := model.ExpansionSet{"CO2", "greenhouse gas", "footprint"}
	hits := []model.Hit{
		{Document: "a.txt", Excerpt: "high CO2 levels"},
		{Document: "b.txt", Excerpt: "greenhouse gas and footprint both mentioned, footprint"},
	}

	got := NewRanker(0).Rank(hits, terms)

	want := []model.RankedResult{
		{Document: "b.txt", Excerpt: "greenhouse gas and footprint both mentioned, footprint", Score: 3},
		{Document: "a.txt", Excerpt: "high CO2 levels", Score: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank =\n%+v\nwant\n%+v", got, want)
	}
}

func TestRanker_TiesKeepDiscoveryOrder(t *testing.T) {
	terms := model.ExpansionSet{"co2"}
	hits := []model.Hit{
		{Document: "d1", Excerpt: "CO2"},
		{Document: "d2", Excerpt: "co2 co2"},
		{Document: "d3", Excerpt: "Co2"},
		{Document: "d4", Excerpt: "cO2"},
	}

	r := NewRanker(0)
	first := r.Rank(hits, terms)

	var order []string
	for _, res := range first {
		order = append(order, res.Document)
	}
	if !reflect.DeepEqual(order, []string{"d2", "d1", "d3", "d4"}) {
		t.Errorf("unexpected order: %v", order)
	}

	// Re-running yields the same order
	for i := 0; i < 5; i++ {
		if again := r.Rank(hits, terms); !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d differs: %+v", i, again)
		}
	}
}

func TestRanker_MaxResultsAndEmpty(t *testing.T) {
	hits := []model.Hit{
		{Document: "a", Excerpt: "x"},
		{Document: "b", Excerpt: "x x"},
		{Document: "c", Excerpt: "x x x"},
	}

	got := NewRanker(2).Rank(hits, model.ExpansionSet{"x"})
	if len(got) != 2 || got[0].Document != "c" || got[1].Document != "b" {
		t.Errorf("unexpected truncated ranking: %+v", got)
	}

	empty := NewRanker(0).Rank(nil, model.ExpansionSet{})
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil ranking, got %#v", empty)
	}
}

func TestScore(t *testing.T) {
	matchers := query.CompileTerms(model.ExpansionSet{"gas", "greenhouse gas", "absent"})
	text := "Greenhouse gas and natural GAS"

	if got := Score(text, matchers); got != 3 {
		t.Errorf("Score = %d, want 3", got)
	}
}
