package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON value
var ErrNoJSON = errors.New("no JSON found in response")

// Metadata is the structured answer to a TaskMetadata prompt
type Metadata struct {
	Year         *int
	Metric       string
	Value        *string
	Unit         string
	CitedPassage string
}

type metadataDTO struct {
	Year         json.RawMessage `json:"year"`
	Metric       string          `json:"metric"`
	Value        json.RawMessage `json:"value"`
	Unit         string          `json:"unit"`
	CitedPassage string          `json:"cited_passage"`
}

// ParseMetadata reads the first JSON object of a response. Code fences are
// ignored; year and value may be numbers or strings.
func ParseMetadata(text string) (*Metadata, error) {
	raw, err := firstJSON(text, '{')
	if err != nil {
		return nil, err
	}

	var dto metadataDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	m := &Metadata{
		Metric:       strings.TrimSpace(dto.Metric),
		Unit:         strings.TrimSpace(dto.Unit),
		CitedPassage: strings.TrimSpace(dto.CitedPassage),
	}

	if s, ok := scalar(dto.Year); ok {
		if year, err := strconv.Atoi(s); err == nil {
			m.Year = &year
		}
	}
	if s, ok := scalar(dto.Value); ok {
		m.Value = &s
	}

	return m, nil
}

// DefaultTags is used when no tags can be parsed
var DefaultTags = []string{"ESG"}

// ParseTags reads the first JSON list of strings in a response and falls
// back to DefaultTags
func ParseTags(text string) []string {
	raw, err := firstJSON(text, '[')
	if err != nil {
		return append([]string(nil), DefaultTags...)
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return append([]string(nil), DefaultTags...)
	}

	seen := make(map[string]bool)
	var cleaned []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		cleaned = append(cleaned, tag)
	}
	if len(cleaned) == 0 {
		return append([]string(nil), DefaultTags...)
	}
	return cleaned
}

// firstJSON decodes the first JSON value starting with open
func firstJSON(text string, open byte) ([]byte, error) {
	text = stripFences(text)

	for start := strings.IndexByte(text, open); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return raw, nil
		}

		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, ErrNoJSON
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// scalar returns a JSON string or number as text; null and other kinds fail
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}

	return "", false
}
