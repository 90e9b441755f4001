package genie

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// envelopeSchemaJSON validates pasted input before any field access: the
// paste must be the raw workspace API response carrying serialized_space.
const envelopeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["serialized_space"],
  "properties": {
    "serialized_space": {
      "type": ["string", "object"]
    }
  }
}`

var envelopeSchemaLoader = gojsonschema.NewStringLoader(envelopeSchemaJSON)

// ParseRaw parses a pasted workspace API response into a document. The
// paste is expected to be the body of
// GET /api/2.0/genie/spaces/{id}?include_serialized_space=true.
// A synthetic space id is generated from the paste time.
func ParseRaw(jsonText string) (*space.Document, string, error) {
	result, err := gojsonschema.Validate(envelopeSchemaLoader, gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		if missing := findMissingEnvelopeField(result); missing {
			return nil, "", fmt.Errorf("invalid input: missing 'serialized_space' field")
		}
		return nil, "", fmt.Errorf("invalid input: %s", result.Errors()[0].String())
	}

	var envelope spaceEnvelope
	if err := json.Unmarshal([]byte(jsonText), &envelope); err != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", err)
	}

	doc, err := decodeSerializedSpace(envelope.SerializedSpace)
	if err != nil {
		return nil, "", err
	}

	spaceID := "pasted-" + time.Now().Format("20060102-150405")
	return doc, spaceID, nil
}

func findMissingEnvelopeField(result *gojsonschema.Result) bool {
	for _, desc := range result.Errors() {
		if desc.Type() == "required" {
			return true
		}
	}
	return false
}
