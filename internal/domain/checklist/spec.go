package checklist

import (
	"sort"
	"sync/atomic"
)

var specVersion atomic.Int64

// Spec is an immutable snapshot of the parsed checklist document. Reloads
// produce a new snapshot; nothing mutates an existing one.
type Spec struct {
	version  int64
	sections map[string][]Item
	source   string
}

func newSpec(sections map[string][]Item, source string) *Spec {
	return &Spec{
		version:  specVersion.Add(1),
		sections: sections,
		source:   source,
	}
}

// Version identifies this snapshot; strictly increasing across reloads.
func (s *Spec) Version() int64 {
	return s.version
}

// Source returns the raw checklist document this snapshot was parsed from.
func (s *Spec) Source() string {
	return s.source
}

// Sections returns the section names that declare at least one item, sorted.
func (s *Spec) Sections() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemsForSection returns the items declared for exactly the named section,
// in declaration order. Items never leak across sections.
func (s *Spec) ItemsForSection(name string) []Item {
	items := s.sections[name]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// ItemCount reports the total number of items across all sections.
func (s *Spec) ItemCount() int {
	n := 0
	for _, items := range s.sections {
		n += len(items)
	}
	return n
}
