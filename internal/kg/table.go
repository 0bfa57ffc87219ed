package kg

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/activearchive/internal/model"
	"gopkg.in/yaml.v3"
)

// Entry is one entity of a static table together with its expansion terms
type Entry struct {
	model.Entity `yaml:",inline"`
	Related      []string `yaml:"related,omitempty"`
}

// Table is an ordered entity table. Order decides which entity is reported
// first when a token matches several keys.
type Table struct {
	Entities []Entry `yaml:"entities"`
}

// DefaultTable returns the built-in ESG table
func DefaultTable() Table {
	return Table{
		Entities: []Entry{
			{
				Entity: model.Entity{
					ID:          "CO2",
					URI:         "dbr:Carbon_dioxide",
					Description: "Carbon dioxide, a colourless gas consisting of carbon and oxygen atoms; primary greenhouse gas.",
				},
				Related: []string{"carbon dioxide", "CO₂", "greenhouse gas", "emissions"},
			},
			{
				Entity: model.Entity{
					ID:          "emissions",
					URI:         "dbr:Greenhouse_gas",
					Description: "Release of greenhouse gases into the atmosphere.",
				},
				Related: []string{"footprint", "GHG", "discharge"},
			},
			{
				Entity: model.Entity{
					ID:          "Scope",
					URI:         "dbr:Greenhouse_gas_protocol",
					Description: "Greenhouse Gas Protocol emission scopes.",
				},
			},
			{
				Entity: model.Entity{
					ID:          "Scope 1",
					URI:         "dbr:Greenhouse_gas_protocol",
					Description: "Direct greenhouse-gas emissions that occur from sources owned or controlled by the organisation.",
				},
			},
			{
				Entity: model.Entity{
					ID:          "ESG",
					URI:         "dbr:Environmental,_social,_and_corporate_governance",
					Description: "Environmental, Social, and Governance is a framework for assessing an organisation's sustainability practices.",
				},
				Related: []string{"CSR", "sustainability"},
			},
		},
	}
}

// LoadTable reads a YAML entity table
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read table: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse table %s: %w", path, err)
	}

	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("table %s: %w", path, err)
	}

	return t, nil
}

// Validate rejects tables with blank or duplicate entity IDs
func (t Table) Validate() error {
	seen := make(map[string]bool, len(t.Entities))
	for i, e := range t.Entities {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return fmt.Errorf("entity %d has empty id", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate entity id %q", id)
		}
		seen[id] = true
	}
	return nil
}
