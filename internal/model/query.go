package model

import "strings"

// Entity is a canonical concept resolved from a query token
type Entity struct {
	ID          string `json:"id" yaml:"id"`                                       // Canonical name (e.g., "CO2")
	URI         string `json:"uri,omitempty" yaml:"uri,omitempty"`                 // External reference (e.g., "dbr:Carbon_dioxide")
	Description string `json:"description,omitempty" yaml:"description,omitempty"` // Short explanatory fact
}

// Ref returns the reference used when displaying the entity
func (e Entity) Ref() string {
	if e.URI != "" {
		return e.URI
	}
	return e.ID
}

// Link associates a query token with the entity it resolved to
type Link struct {
	Token  string `json:"token"`
	Entity Entity `json:"entity"`
}

// Links is an ordered set of token-entity associations
type Links []Link

// Map returns token -> entity reference. For a token linked to several
// entities the first link wins.
func (l Links) Map() map[string]string {
	m := make(map[string]string, len(l))
	for _, link := range l {
		if _, ok := m[link.Token]; !ok {
			m[link.Token] = link.Entity.Ref()
		}
	}
	return m
}

// ExpansionSet is the ordered, duplicate-free list of search terms
type ExpansionSet []string

// NewExpansionSet builds an expansion set from terms in order, dropping
// blank terms and keeping the first occurrence of duplicates
func NewExpansionSet(terms ...[]string) ExpansionSet {
	seen := make(map[string]bool)
	set := ExpansionSet{}

	for _, group := range terms {
		for _, term := range group {
			term = strings.TrimSpace(term)
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true
			set = append(set, term)
		}
	}

	return set
}

// Document is a named text in the corpus
type Document struct {
	Name string `json:"name"`
	Text string `json:"-"`
}

// Hit is a document that matched at least one expansion term
type Hit struct {
	Document string `json:"document"`
	Excerpt  string `json:"excerpt"`
	Term     string `json:"term"` // Term that selected the excerpt
}

// RankedResult is a scored hit
type RankedResult struct {
	Document string `json:"document"`
	Excerpt  string `json:"excerpt"`
	Score    int    `json:"score"`
}

// Exploration is the complete result of one query run
type Exploration struct {
	Query   string         `json:"query"`
	Tokens  []string       `json:"tokens"`
	Links   Links          `json:"links"`
	Terms   ExpansionSet   `json:"terms"`
	Results []RankedResult `json:"results"`
	Graph   Graph          `json:"graph"`
	Scanned int            `json:"scanned"` // Documents read from the corpus
}
