package application

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/domain/ai"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
	"github.com/felixgeelhaar/spacecheck/pkg/llmjson"
)

// LabelingFeedback is one labeled benchmark question from a review session.
// IsCorrect is nil when the question was left unlabeled.
type LabelingFeedback struct {
	QuestionText string `json:"question_text"`
	IsCorrect    *bool  `json:"is_correct"`
	FeedbackText string `json:"feedback_text,omitempty"`
}

// OptimizationSuggestion is one field-level change proposal against the
// space configuration.
type OptimizationSuggestion struct {
	FieldPath          string `json:"field_path"`
	CurrentValue       any    `json:"current_value"`
	SuggestedValue     any    `json:"suggested_value"`
	Rationale          string `json:"rationale"`
	ChecklistReference string `json:"checklist_reference,omitempty"`
	Priority           string `json:"priority"`
	Category           string `json:"category"`
}

// OptimizationResult is the full output of one optimization pass.
type OptimizationResult struct {
	Suggestions []OptimizationSuggestion `json:"suggestions"`
	Summary     string                   `json:"summary"`
	TraceID     string                   `json:"trace_id"`
}

// MergeResult reports the outcome of applying suggestions to a
// configuration.
type MergeResult struct {
	MergedConfig map[string]any `json:"merged_config"`
	Summary      string         `json:"summary"`
	FailedPaths  []string       `json:"failed_paths,omitempty"`
}

// OptimizerService proposes field-level configuration changes from labeled
// benchmark feedback and applies accepted suggestions to the configuration.
type OptimizerService struct {
	provider ai.Provider
	store    *checklist.Store
	logger   zerolog.Logger
}

// NewOptimizerService creates an optimizer backed by the given provider.
// The checklist store supplies the best-practices document for the prompt.
func NewOptimizerService(provider ai.Provider, store *checklist.Store, logger zerolog.Logger) *OptimizerService {
	return &OptimizerService{
		provider: provider,
		store:    store,
		logger:   logger.With().Str("component", "optimizer").Logger(),
	}
}

// GenerateOptimizations asks the provider for field-level suggestions that
// address the incorrectly answered benchmark questions.
func (s *OptimizerService) GenerateOptimizations(ctx context.Context, doc *space.Document, feedback []LabelingFeedback) (*OptimizationResult, error) {
	prompt, err := s.buildOptimizationPrompt(doc, feedback)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:    prompt,
		MaxTokens: 8192,
	})
	if err != nil {
		return nil, fmt.Errorf("optimization call failed: %w", err)
	}

	var result OptimizationResult
	if err := llmjson.Decode(resp.Text, &result); err != nil {
		return nil, fmt.Errorf("optimization response: %w", err)
	}
	result.TraceID = uuid.NewString()

	s.logger.Info().
		Int("suggestions", len(result.Suggestions)).
		Str("trace_id", result.TraceID).
		Msg("optimization suggestions generated")
	return &result, nil
}

// MergeConfig applies suggestions to a copy of the configuration. A path
// that cannot be resolved is skipped and reported, never fatal.
func (s *OptimizerService) MergeConfig(doc *space.Document, suggestions []OptimizationSuggestion) *MergeResult {
	merged := deepCopyMap(doc.Raw())

	applied := 0
	var failed []string
	for _, sg := range suggestions {
		if err := applySuggestion(merged, sg.FieldPath, sg.SuggestedValue); err != nil {
			s.logger.Warn().Err(err).Str("field_path", sg.FieldPath).Msg("suggestion not applied")
			failed = append(failed, sg.FieldPath)
			continue
		}
		applied++
	}

	summary := fmt.Sprintf("Successfully applied all %d suggestions to the configuration.", applied)
	if len(failed) > 0 {
		preview := failed
		ellipsis := ""
		if len(preview) > 3 {
			preview = preview[:3]
			ellipsis = "..."
		}
		summary = fmt.Sprintf("Applied %d of %d suggestions. Failed paths: %s%s",
			applied, len(suggestions), strings.Join(preview, ", "), ellipsis)
	}

	return &MergeResult{MergedConfig: merged, Summary: summary, FailedPaths: failed}
}

func (s *OptimizerService) buildOptimizationPrompt(doc *space.Document, feedback []LabelingFeedback) (string, error) {
	configJSON, err := json.MarshalIndent(doc.Raw(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode configuration: %w", err)
	}

	correct, incorrect := 0, 0
	var lines []string
	for i, item := range feedback {
		status := "NOT LABELED"
		switch {
		case item.IsCorrect != nil && *item.IsCorrect:
			status = "CORRECT"
			correct++
		case item.IsCorrect != nil:
			status = "INCORRECT"
			incorrect++
		}
		line := fmt.Sprintf("%d. [%s] %s", i+1, status, item.QuestionText)
		if item.FeedbackText != "" {
			line += "\n   Feedback: " + item.FeedbackText
		}
		lines = append(lines, line)
	}

	var b strings.Builder
	b.WriteString("You are an expert at optimizing Databricks Genie Space configurations to improve answer accuracy.\n\n")
	b.WriteString("## Task\nAnalyze the Genie Space configuration and labeling feedback to generate specific, field-level optimization suggestions that will help Genie answer questions more accurately.\n\n")
	b.WriteString("## Genie Space Configuration\n```json\n")
	b.Write(configJSON)
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "## Labeling Feedback\nThe user labeled %d benchmark questions:\n- %d answered correctly by Genie\n- %d answered incorrectly by Genie\n\n%s\n\n",
		len(feedback), correct, incorrect, strings.Join(lines, "\n"))
	b.WriteString("## Best Practices Checklist\n")
	b.WriteString(s.store.Current().Source())
	b.WriteString(`

## Instructions

Generate optimization suggestions that will improve Genie's accuracy, especially for the INCORRECT questions.

Constraints:
1. Only suggest modifications to EXISTING fields. Do not suggest adding new tables.
2. Use exact JSON paths for field_path (e.g., "instructions.text_instructions[0].content").
3. Prioritize suggestions that directly address incorrect benchmark questions.
4. Limit to 10-15 most impactful suggestions.

Valid categories: instruction, sql_example, filter, expression, measure, synonym, join_spec, description.
Priority levels: high (directly addresses an incorrect question), medium (improves general accuracy), low (minor clarity).

Output your suggestions as JSON with this exact structure:
{
  "suggestions": [
    {
      "field_path": "exact.json.path[index].field",
      "current_value": <current value from config or null if adding>,
      "suggested_value": <new suggested value>,
      "rationale": "Explanation of why this change helps and which questions it addresses",
      "checklist_reference": "related-checklist-item-id or null",
      "priority": "high" | "medium" | "low",
      "category": "instruction" | "sql_example" | "filter" | "expression" | "measure" | "synonym" | "join_spec" | "description"
    }
  ],
  "summary": "Brief overall summary of the optimization strategy"
}`)
	return b.String(), nil
}

var indexedSegmentRe = regexp.MustCompile(`^(.+?)\[(\d+)\]$`)

type pathSegment struct {
	key   string
	index int
	isIdx bool
}

func parseFieldPath(fieldPath string) []pathSegment {
	var segments []pathSegment
	for _, part := range strings.Split(fieldPath, ".") {
		if m := indexedSegmentRe.FindStringSubmatch(part); m != nil {
			idx, _ := strconv.Atoi(m[2])
			segments = append(segments, pathSegment{key: m[1]})
			segments = append(segments, pathSegment{index: idx, isIdx: true})
		} else {
			segments = append(segments, pathSegment{key: part})
		}
	}
	return segments
}

// applySuggestion sets a value at a dotted path with optional array
// indices, e.g. "instructions.text_instructions[0].content". Missing
// intermediate objects are created; a final out-of-range index extends the
// list in place at its parent.
func applySuggestion(config map[string]any, fieldPath string, value any) error {
	if fieldPath == "" {
		return fmt.Errorf("empty field path")
	}
	segments := parseFieldPath(fieldPath)

	// The final segment is set through its parent container, so a grown
	// list can be stored back under the parent key.
	var parent any = config
	parentKey := pathSegment{}
	var current any = config
	for i := 0; i < len(segments)-1; i++ {
		seg := segments[i]
		if seg.isIdx {
			list, ok := current.([]any)
			if !ok || seg.index >= len(list) {
				return fmt.Errorf("invalid array index %d at %q", seg.index, fieldPath)
			}
			parent, parentKey = current, seg
			current = list[seg.index]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object at %q in %q", seg.key, fieldPath)
		}
		if _, exists := obj[seg.key]; !exists {
			if segments[i+1].isIdx {
				obj[seg.key] = []any{}
			} else {
				obj[seg.key] = map[string]any{}
			}
		}
		parent, parentKey = current, seg
		current = obj[seg.key]
	}

	last := segments[len(segments)-1]
	if last.isIdx {
		list, ok := current.([]any)
		if !ok {
			return fmt.Errorf("expected list for index %d in %q", last.index, fieldPath)
		}
		for len(list) <= last.index {
			list = append(list, nil)
		}
		list[last.index] = value
		return storeAt(parent, parentKey, list, fieldPath)
	}
	obj, ok := current.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object for key %q in %q", last.key, fieldPath)
	}
	obj[last.key] = value
	return nil
}

func storeAt(parent any, seg pathSegment, value any, fieldPath string) error {
	if seg.isIdx {
		list, ok := parent.([]any)
		if !ok || seg.index >= len(list) {
			return fmt.Errorf("cannot store list at index %d in %q", seg.index, fieldPath)
		}
		list[seg.index] = value
		return nil
	}
	obj, ok := parent.(map[string]any)
	if !ok || seg.key == "" {
		return fmt.Errorf("a list cannot be the document root in %q", fieldPath)
	}
	obj[seg.key] = value
	return nil
}

func deepCopyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return val
	}
}
