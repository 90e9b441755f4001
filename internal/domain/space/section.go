package space

// Shape classifies a section payload so checks can pattern-match without
// runtime type surprises. Anything unrecognized stays Opaque with the raw
// value intact.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeList
	ShapeObject
	ShapeOpaque
)

// Section is one named, independently analyzable subtree of the document.
type Section struct {
	Name    string `json:"name"`
	HasData bool   `json:"has_data"`
	Data    any    `json:"data"`
}

// Shape reports the recognized form of the section payload.
func (s Section) Shape() Shape {
	if !s.HasData || s.Data == nil {
		return ShapeAbsent
	}
	switch s.Data.(type) {
	case []any:
		return ShapeList
	case map[string]any:
		return ShapeObject
	default:
		return ShapeOpaque
	}
}

// Entries returns the section payload as a list. Non-list payloads yield nil.
func (s Section) Entries() []any {
	if list, ok := s.Data.([]any); ok {
		return list
	}
	return nil
}

// Object returns the section payload as an object. Non-object payloads yield nil.
func (s Section) Object() map[string]any {
	if obj, ok := s.Data.(map[string]any); ok {
		return obj
	}
	return nil
}
