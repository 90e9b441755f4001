package checks

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

func listSection(name string, entries ...any) space.Section {
	return space.Section{Name: name, HasData: true, Data: entries}
}

func programmaticItem(rule string, params map[string]any) checklist.Item {
	if params == nil {
		params = map[string]any{}
	}
	params["rule"] = rule
	return checklist.Item{
		ID:          "item-under-test",
		Description: "item under test",
		Kind:        checklist.KindProgrammatic,
		Params:      params,
	}
}

func TestMaxItems(t *testing.T) {
	over := make([]any, 25)
	for i := range over {
		over[i] = map[string]any{"question": "q"}
	}

	tests := []struct {
		name    string
		sec     space.Section
		limit   int
		passed  bool
		details string
	}{
		{"under limit", listSection("config.sample_questions", "a", "b"), 20, true, ""},
		{"twenty five entries over limit twenty", space.Section{Name: "config.sample_questions", HasData: true, Data: over}, 20, false, "found 25 entries, limit is 20"},
		{"absent section passes", space.Section{Name: "config.sample_questions"}, 20, true, ""},
		{"non-list data fails", space.Section{Name: "x", HasData: true, Data: "scalar"}, 20, false, "not a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := programmaticItem("max_items", map[string]any{"limit": tt.limit})
			passed, details := maxItems(item, tt.sec)
			if passed != tt.passed {
				t.Errorf("passed = %v, want %v (%s)", passed, tt.passed, details)
			}
			if tt.details != "" && !strings.Contains(details, tt.details) {
				t.Errorf("details = %q, want substring %q", details, tt.details)
			}
		})
	}
}

func TestMinItemsFailsOnAbsentSection(t *testing.T) {
	item := programmaticItem("min_items", map[string]any{"limit": 1})
	passed, details := minItems(item, space.Section{Name: "data_sources.tables"})
	if passed {
		t.Errorf("expected failure on absent section, got pass (%s)", details)
	}
}

func TestRequiredField(t *testing.T) {
	item := programmaticItem("required_field", map[string]any{"field": "name"})

	sec := listSection("x", map[string]any{"name": "a"}, map[string]any{"name": "b"})
	if passed, details := requiredField(item, sec); !passed {
		t.Errorf("expected pass, got %s", details)
	}

	sec = listSection("x", map[string]any{"name": "a"}, map[string]any{"other": 1})
	passed, details := requiredField(item, sec)
	if passed {
		t.Error("expected failure for missing field")
	}
	if !strings.Contains(details, "1 of 2") {
		t.Errorf("details = %q, want counts", details)
	}
}

func TestNonemptyFieldTreatsBlankAsEmpty(t *testing.T) {
	item := programmaticItem("nonempty_field", map[string]any{"field": "description"})
	sec := listSection("x",
		map[string]any{"description": "real"},
		map[string]any{"description": "   "},
		map[string]any{},
	)
	passed, details := nonemptyField(item, sec)
	if passed {
		t.Error("expected failure for blank descriptions")
	}
	if !strings.Contains(details, "2 of 3") {
		t.Errorf("details = %q, want counts", details)
	}
}

func TestNamePattern(t *testing.T) {
	item := programmaticItem("name_pattern", map[string]any{
		"field":   "identifier",
		"pattern": `^[a-z_]+\.[a-z_]+\.[a-z_]+$`,
	})
	sec := listSection("x",
		map[string]any{"identifier": "main.sales.orders"},
		map[string]any{"identifier": "BadName"},
	)
	passed, details := namePattern(item, sec)
	if passed {
		t.Error("expected failure for non-matching identifier")
	}
	if !strings.Contains(details, "BadName") {
		t.Errorf("details = %q, want offender named", details)
	}
}

func TestRunUnknownRuleFailsWithExplanation(t *testing.T) {
	item := programmaticItem("no_such_rule", nil)
	result := Run(item, listSection("x"))
	if result.Passed {
		t.Error("unknown rule must fail")
	}
	if !result.Applicable {
		t.Error("unknown rule result must stay applicable")
	}
	if !strings.Contains(result.Details, "no_such_rule") {
		t.Errorf("details = %q, want rule named", result.Details)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	item := programmaticItem("max_items", map[string]any{"limit": 2})
	sec := listSection("x", "a", "b", "c")
	first := Run(item, sec)
	for i := 0; i < 5; i++ {
		if got := Run(item, sec); got != first {
			t.Fatalf("run %d differed: %+v != %+v", i, got, first)
		}
	}
}
