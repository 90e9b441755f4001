// Package judgment defines the port to the qualitative judgment backend.
// The engine only sees this interface; how the judgment happens (an LLM
// serving endpoint, a mock, a recording) is an infrastructure concern.
package judgment

import (
	"context"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
)

// Request is one batched judgment call: a section, its judged checklist
// items and whatever surrounding context the items need (e.g. table names
// referenced by cross-section checks).
type Request struct {
	SectionName string
	SectionData any
	Items       []checklist.Item
	Context     map[string]any
}

// Evaluation is the verdict for a single checklist item.
type Evaluation struct {
	Passed    bool
	Rationale string
}

// Response maps item IDs to their evaluations, plus free-form commentary.
type Response struct {
	Evaluations map[string]Evaluation
	Findings    []analysis.Finding
	Summary     string
}

// Judge submits a batched judgment request. It may fail or time out; the
// caller degrades gracefully and never propagates the failure beyond the
// section being analyzed.
type Judge interface {
	Evaluate(ctx context.Context, req Request) (*Response, error)
}
