// Package checklist parses the best-practices checklist document into
// structured, per-section item definitions and holds the loaded spec as an
// immutable, atomically replaceable snapshot.
package checklist

// Kind distinguishes how a checklist item is evaluated.
type Kind string

const (
	// KindProgrammatic items are evaluated deterministically in code.
	KindProgrammatic Kind = "programmatic"
	// KindJudged items require a qualitative judgment call.
	KindJudged Kind = "judged"
)

// Severity expresses the declared weight of a checklist item. Findings for
// failed items inherit it.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Item is one named, independently scored rule against a configuration
// section. Items are immutable once loaded.
type Item struct {
	ID          string         `json:"id"`
	Section     string         `json:"section"`
	Description string         `json:"description"`
	Kind        Kind           `json:"kind"`
	Severity    Severity       `json:"severity"`
	Params      map[string]any `json:"rule_params,omitempty"`
}

// StringParam returns a string-valued rule param.
func (i Item) StringParam(key string) (string, bool) {
	v, ok := i.Params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IntParam returns an integer-valued rule param. YAML flow mappings decode
// integers as int; JSON round-trips produce float64, so both are accepted.
func (i Item) IntParam(key string) (int, bool) {
	switch v := i.Params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Partition splits items into programmatic and judged subsets, preserving
// declaration order within each subset.
func Partition(items []Item) (programmatic, judged []Item) {
	for _, item := range items {
		if item.Kind == KindProgrammatic {
			programmatic = append(programmatic, item)
		} else {
			judged = append(judged, item)
		}
	}
	return programmatic, judged
}
