// Package analysis defines the result model for checklist-driven space
// analysis: per-item outcomes, findings, section analyses and the aggregate
// agent output, together with the scoring rules.
package analysis

// Category classifies a finding.
type Category string

const (
	CategoryBestPractice Category = "best_practice"
	CategoryWarning      Category = "warning"
	CategorySuggestion   Category = "suggestion"
)

// ChecklistItemResult is the outcome of one checklist item against one
// section instance. Applicable is false for judged items that could not be
// evaluated because the section carries no data; such items count neither as
// passed nor as failed.
type ChecklistItemResult struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Applicable  bool   `json:"applicable"`
	Details     string `json:"details,omitempty"`
}

// Finding is a structured remediation note derived from one failing
// checklist item (or from a degraded judgment call).
type Finding struct {
	Category       Category `json:"category"`
	Severity       string   `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Reference      string   `json:"reference"`
}

// SectionAnalysis holds the complete result for one section. Immutable after
// creation.
type SectionAnalysis struct {
	SectionName string                `json:"section_name"`
	Checklist   []ChecklistItemResult `json:"checklist"`
	Findings    []Finding             `json:"findings"`
	Score       float64               `json:"score"`
	Summary     string                `json:"summary"`
}

// AgentOutput is the aggregate result of one analysis run. Analyses preserve
// the caller-supplied section order; a nil slot marks a section that did not
// complete (e.g. the run was cancelled).
type AgentOutput struct {
	GenieSpaceID string             `json:"genie_space_id"`
	Analyses     []*SectionAnalysis `json:"analyses"`
	OverallScore float64            `json:"overall_score"`
	TraceID      string             `json:"trace_id"`
}

// Completed returns the populated analyses in order.
func (o *AgentOutput) Completed() []*SectionAnalysis {
	var out []*SectionAnalysis
	for _, a := range o.Analyses {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
