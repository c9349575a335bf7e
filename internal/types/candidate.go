// Package types provides type definitions for structured data used throughout the outreach agent.
package types

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Candidate is a prospective recipient read from a scraped directory source.
// Candidates are read-only inputs; Name is the dedup key across all runs.
type Candidate struct {
	Name        string `json:"name" validate:"required"`
	ContactHint string `json:"email,omitempty"`
	ProfileText string `json:"bio,omitempty"`
	ProfileLink string `json:"profile_link,omitempty"`
	Source      string `json:"source,omitempty"`
}

var validate = validator.New()

// Validate validates the Candidate using the validator.
func (c *Candidate) Validate() error {
	return validate.Struct(c)
}

// Directory is the full candidate input: one ordered list per source, in
// declared priority order (index 0 is the primary source).
type Directory struct {
	Sources []SourceList `json:"sources"`
}

// SourceList is the ordered candidate list scraped from a single source.
type SourceList struct {
	Name string `json:"name" validate:"required"`
	// ExcludeStudents enables the content filter that skips profiles describing students.
	ExcludeStudents bool        `json:"exclude_students,omitempty"`
	Candidates      []Candidate `json:"candidates"`
}

// Len returns the total number of candidates across all sources.
func (d *Directory) Len() int {
	n := 0
	for _, s := range d.Sources {
		n += len(s.Candidates)
	}
	return n
}

// First returns the first candidate of the highest-priority non-empty source.
func (d *Directory) First() (Candidate, bool) {
	for _, s := range d.Sources {
		if len(s.Candidates) > 0 {
			return s.Candidates[0], true
		}
	}
	return Candidate{}, false
}

// DocumentSet maps a document identifier (usually a PDF filename) to its plain text.
type DocumentSet map[string]string

// IDs returns the document identifiers in sorted order.
func (d DocumentSet) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether id is a known document identifier.
func (d DocumentSet) Has(id string) bool {
	_, ok := d[id]
	return ok
}

// SourceContext returns the institution phrase used in prompts for a source tag.
func SourceContext(source string) string {
	if strings.Contains(source, "Allen") {
		return "Allen School"
	}
	return "eScience Institute"
}
