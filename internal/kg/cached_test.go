package kg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/activearchive/internal/cache"
	"github.com/ppiankov/activearchive/internal/model"
)

type countingLookup struct {
	finds    int
	related  int
	describe int
	fail     bool
}

func (c *countingLookup) FindEntities(_ context.Context, token string) ([]model.Entity, error) {
	c.finds++
	if c.fail {
		return nil, errors.New("unavailable")
	}
	return []model.Entity{{ID: token}}, nil
}

func (c *countingLookup) RelatedTerms(_ context.Context, entityID string) ([]string, error) {
	c.related++
	return []string{entityID + "-related"}, nil
}

func (c *countingLookup) Describe(_ context.Context, entityID string) (string, error) {
	c.describe++
	return entityID + " description", nil
}

func TestCachedLookup_Memoizes(t *testing.T) {
	inner := &countingLookup{}
	l, err := NewCachedLookup(inner, cache.NewMemoryCache(time.Minute, time.Minute), "test", time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCachedLookup: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := l.FindEntities(ctx, "CO2")
		if err != nil || len(got) != 1 || got[0].ID != "CO2" {
			t.Fatalf("FindEntities = %v, %v", got, err)
		}
		terms, _ := l.RelatedTerms(ctx, "CO2")
		if len(terms) != 1 || terms[0] != "CO2-related" {
			t.Fatalf("RelatedTerms = %v", terms)
		}
		desc, _ := l.Describe(ctx, "CO2")
		if desc != "CO2 description" {
			t.Fatalf("Describe = %q", desc)
		}
	}

	if inner.finds != 1 || inner.related != 1 || inner.describe != 1 {
		t.Errorf("expected one inner call each, got finds=%d related=%d describe=%d",
			inner.finds, inner.related, inner.describe)
	}

	stats, ok := l.Stats()
	if !ok || stats.Hits != 6 || stats.Misses != 3 {
		t.Errorf("unexpected cache stats: %+v (%v)", stats, ok)
	}
}

func TestCachedLookup_DoesNotCacheErrors(t *testing.T) {
	inner := &countingLookup{fail: true}
	l, err := NewCachedLookup(inner, cache.NewMemoryCache(time.Minute, time.Minute), "test", time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCachedLookup: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := l.FindEntities(context.Background(), "CO2"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.finds != 2 {
		t.Errorf("expected errors to reach inner lookup each time, got %d calls", inner.finds)
	}
}

func TestNewCachedLookup_Nil(t *testing.T) {
	if _, err := NewCachedLookup(nil, cache.NewMemoryCache(time.Minute, time.Minute), "", 0, nil); !errors.Is(err, ErrNilLookup) {
		t.Errorf("expected ErrNilLookup, got %v", err)
	}
}
