package genie

import (
	"strings"
	"testing"
)

func TestParseRawStringWrapped(t *testing.T) {
	input := `{"space_id": "x", "serialized_space": "{\"config\": {\"display_name\": \"Sales\"}}"}`

	doc, spaceID, err := ParseRaw(input)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	if !strings.HasPrefix(spaceID, "pasted-") {
		t.Errorf("space id = %q, want pasted- prefix", spaceID)
	}
	if val, ok := doc.Lookup("config.display_name"); !ok || val != "Sales" {
		t.Errorf("display_name = %v (%v)", val, ok)
	}
}

func TestParseRawInlineObject(t *testing.T) {
	input := `{"serialized_space": {"config": {"display_name": "Sales"}}}`

	doc, _, err := ParseRaw(input)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	if val, _ := doc.Lookup("config.display_name"); val != "Sales" {
		t.Errorf("display_name = %v", val)
	}
}

func TestParseRawMissingSerializedSpace(t *testing.T) {
	_, _, err := ParseRaw(`{"space_id": "x"}`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "missing 'serialized_space' field") {
		t.Errorf("error = %v", err)
	}
}

func TestParseRawInvalidJSON(t *testing.T) {
	if _, _, err := ParseRaw("not json at all"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseRawWrongEnvelopeType(t *testing.T) {
	if _, _, err := ParseRaw(`{"serialized_space": 42}`); err == nil {
		t.Error("expected error for numeric serialized_space")
	}
}
