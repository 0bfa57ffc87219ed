package model

import "time"

// MetadataRecord is one curated entry in the metadata store
type MetadataRecord struct {
	ID           string            `json:"id,omitempty"`
	SourceFile   string            `json:"source_file,omitempty"`
	Year         *int              `json:"year"`
	Metric       string            `json:"metric"`
	Value        *string           `json:"value"`
	Unit         string            `json:"unit"`
	CitedPassage string            `json:"cited_passage"`
	Summary      string            `json:"summary,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Facts        map[string]string `json:"facts,omitempty"`

	CuratorApproved  bool   `json:"curator_approved"`
	CuratorTimestamp string `json:"curator_timestamp,omitempty"` // UTC, RFC3339

	CreatedAt time.Time `json:"created_at,omitempty"`
}
