package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// maxItems: the section holds at most `limit` entries.
func maxItems(item checklist.Item, sec space.Section) (bool, string) {
	limit, ok := item.IntParam("limit")
	if !ok {
		return false, "rule max_items missing limit param"
	}
	if sec.Shape() == space.ShapeAbsent {
		return true, "section has no entries"
	}
	entries := sec.Entries()
	if entries == nil {
		return false, "section data is not a list"
	}
	if len(entries) > limit {
		return false, fmt.Sprintf("found %d entries, limit is %d", len(entries), limit)
	}
	return true, fmt.Sprintf("found %d entries (limit %d)", len(entries), limit)
}

// minItems: the section holds at least `limit` entries. Absent data fails
// deterministically.
func minItems(item checklist.Item, sec space.Section) (bool, string) {
	limit, ok := item.IntParam("limit")
	if !ok {
		return false, "rule min_items missing limit param"
	}
	entries := sec.Entries()
	if len(entries) < limit {
		return false, fmt.Sprintf("found %d entries, at least %d required", len(entries), limit)
	}
	return true, fmt.Sprintf("found %d entries (minimum %d)", len(entries), limit)
}

// requiredField: every entry carries the named field.
func requiredField(item checklist.Item, sec space.Section) (bool, string) {
	field, ok := item.StringParam("field")
	if !ok {
		return false, "rule required_field missing field param"
	}
	entries := sec.Entries()
	if entries == nil {
		return false, "section has no entries to inspect"
	}
	missing := 0
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			missing++
			continue
		}
		if _, ok := obj[field]; !ok {
			missing++
		}
	}
	if missing > 0 {
		return false, fmt.Sprintf("%d of %d entries missing field %q", missing, len(entries), field)
	}
	return true, fmt.Sprintf("all %d entries carry field %q", len(entries), field)
}

// nonemptyField: every entry carries a non-empty string in the named field.
func nonemptyField(item checklist.Item, sec space.Section) (bool, string) {
	field, ok := item.StringParam("field")
	if !ok {
		return false, "rule nonempty_field missing field param"
	}
	entries := sec.Entries()
	if entries == nil {
		return false, "section has no entries to inspect"
	}
	empty := 0
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			empty++
			continue
		}
		s, ok := obj[field].(string)
		if !ok || strings.TrimSpace(s) == "" {
			empty++
		}
	}
	if empty > 0 {
		return false, fmt.Sprintf("%d of %d entries have an empty %q", empty, len(entries), field)
	}
	return true, fmt.Sprintf("all %d entries have a non-empty %q", len(entries), field)
}

// namePattern: the named field of every entry matches `pattern`.
func namePattern(item checklist.Item, sec space.Section) (bool, string) {
	field, ok := item.StringParam("field")
	if !ok {
		return false, "rule name_pattern missing field param"
	}
	pattern, ok := item.StringParam("pattern")
	if !ok {
		return false, "rule name_pattern missing pattern param"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid pattern %q: %v", pattern, err)
	}
	entries := sec.Entries()
	if entries == nil {
		return false, "section has no entries to inspect"
	}
	var offenders []string
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			offenders = append(offenders, "<non-object entry>")
			continue
		}
		s, _ := obj[field].(string)
		if !re.MatchString(s) {
			offenders = append(offenders, s)
		}
	}
	if len(offenders) > 0 {
		return false, fmt.Sprintf("%d of %d entries do not match %q: %s",
			len(offenders), len(entries), pattern, strings.Join(offenders, ", "))
	}
	return true, fmt.Sprintf("all %d entries match %q", len(entries), pattern)
}
