// Package space models a serialized Genie Space configuration as an
// analyzable document split into named sections.
package space

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SectionNames is the canonical, ordered list of analyzable sections.
// The walkthrough UI and the streaming endpoint both rely on this order.
var SectionNames = []string{
	"config.sample_questions",
	"data_sources.tables",
	"data_sources.metric_views",
	"instructions.text_instructions",
	"instructions.example_question_sqls",
	"instructions.sql_functions",
	"instructions.join_specs",
	"instructions.sql_snippets.filters",
	"instructions.sql_snippets.expressions",
	"instructions.sql_snippets.measures",
	"benchmarks.questions",
}

// Document is a parsed Genie Space configuration.
type Document struct {
	raw map[string]any
}

// ParseDocument parses serialized space JSON into a Document.
func ParseDocument(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse space document: %w", err)
	}
	return &Document{raw: raw}, nil
}

// NewDocument wraps an already-decoded configuration payload.
func NewDocument(raw map[string]any) *Document {
	if raw == nil {
		raw = map[string]any{}
	}
	return &Document{raw: raw}
}

// Raw returns the underlying decoded payload.
func (d *Document) Raw() map[string]any {
	return d.raw
}

// Lookup walks a dotted path ("instructions.sql_snippets.filters") through
// nested objects and reports whether the path resolves.
func (d *Document) Lookup(path string) (any, bool) {
	var current any = d.raw
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Section extracts one named section. A missing path yields a section with
// HasData=false and nil Data; analysis still runs against it.
func (d *Document) Section(name string) Section {
	data, ok := d.Lookup(name)
	return Section{Name: name, HasData: ok && data != nil, Data: data}
}

// Sections returns all canonical sections in walkthrough order.
func (d *Document) Sections() []Section {
	sections := make([]Section, 0, len(SectionNames))
	for _, name := range SectionNames {
		sections = append(sections, d.Section(name))
	}
	return sections
}
