// Package checks evaluates programmatic checklist items directly against
// section data. Evaluation is pure and deterministic: malformed or absent
// data yields a failing result with an explanation, never an error.
package checks

import (
	"fmt"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// RuleFunc evaluates one rule class against a section.
type RuleFunc func(item checklist.Item, sec space.Section) (passed bool, details string)

// registry maps the "rule" param of a programmatic item to its evaluator.
var registry = map[string]RuleFunc{
	"max_items":      maxItems,
	"min_items":      minItems,
	"required_field": requiredField,
	"nonempty_field": nonemptyField,
	"name_pattern":   namePattern,
}

// Rules lists the registered rule identifiers.
func Rules() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Run evaluates one programmatic checklist item against a section.
func Run(item checklist.Item, sec space.Section) analysis.ChecklistItemResult {
	result := analysis.ChecklistItemResult{
		ID:          item.ID,
		Description: item.Description,
		Applicable:  true,
	}

	rule, _ := item.StringParam("rule")
	fn, ok := registry[rule]
	if !ok {
		result.Details = fmt.Sprintf("unknown rule %q", rule)
		return result
	}

	result.Passed, result.Details = fn(item, sec)
	return result
}
