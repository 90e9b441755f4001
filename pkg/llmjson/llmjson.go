// Package llmjson recovers structured JSON from LLM completions. Models
// routinely wrap JSON in markdown fences, prepend prose, or produce small
// syntax faults; these helpers extract and repair a parseable payload.
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	missingCommaRe  = regexp.MustCompile(`([}\]"])\s*\n\s*(["{\[])`)
)

// ExtractPayload strips markdown fences and surrounding prose, returning
// the first balanced JSON object or array in the text.
func ExtractPayload(text string) string {
	clean := strings.TrimSpace(text)

	if strings.HasPrefix(clean, "```") {
		lines := strings.Split(clean, "\n")
		end := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				end = i
				break
			}
		}
		clean = strings.Join(lines[1:end], "\n")
		clean = strings.TrimSpace(clean)
	}

	if strings.HasPrefix(clean, "{") || strings.HasPrefix(clean, "[") {
		return clean
	}

	start := strings.IndexAny(clean, "{[")
	if start < 0 {
		return clean
	}
	open := clean[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(clean); i++ {
		c := clean[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == open:
			depth++
		case !inString && c == close:
			depth--
			if depth == 0 {
				return clean[start : i+1]
			}
		}
	}
	return clean[start:]
}

// Repair fixes the two most common LLM JSON faults: trailing commas and
// missing commas between adjacent values.
func Repair(text string) string {
	text = trailingCommaRe.ReplaceAllString(text, "$1")
	text = missingCommaRe.ReplaceAllString(text, "$1,\n$2")
	return text
}

// Decode extracts the JSON payload from a completion and unmarshals it into
// v, retrying once after repair.
func Decode(text string, v any) error {
	clean := ExtractPayload(text)
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		if err2 := json.Unmarshal([]byte(Repair(clean)), v); err2 != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
