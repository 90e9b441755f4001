package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/spacecheck/internal/domain/ai"
	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/judgment"
	"github.com/felixgeelhaar/spacecheck/pkg/llmjson"
)

// evaluationSchemaJSON validates the judgment payload before decoding, so a
// malformed response degrades into one judge error instead of half-decoded
// evaluations.
const evaluationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["evaluations"],
  "properties": {
    "evaluations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "passed"],
        "properties": {
          "id": { "type": "string" },
          "passed": { "type": "boolean" },
          "details": { "type": "string" }
        }
      }
    },
    "findings": { "type": "array" },
    "summary": { "type": "string" }
  }
}`

var evaluationSchemaLoader = gojsonschema.NewStringLoader(evaluationSchemaJSON)

// LLMJudge implements judgment.Judge on top of an ai.Provider: it renders
// the checklist-evaluation prompt, submits one batched completion per
// section and decodes the structured verdict.
type LLMJudge struct {
	provider ai.Provider
	logger   zerolog.Logger
}

// NewLLMJudge creates a judge backed by the given provider.
func NewLLMJudge(provider ai.Provider, logger zerolog.Logger) *LLMJudge {
	return &LLMJudge{
		provider: provider,
		logger:   logger.With().Str("component", "llm-judge").Logger(),
	}
}

const judgeSystemPrompt = "You are evaluating a Databricks Genie Space configuration section against specific checklist criteria. " +
	"You respond ONLY with JSON matching the requested structure."

func (j *LLMJudge) Evaluate(ctx context.Context, req judgment.Request) (*judgment.Response, error) {
	resp, err := j.provider.Complete(ctx, ai.CompletionRequest{
		Prompt: buildEvaluationPrompt(req),
		System: judgeSystemPrompt,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &analysis.JudgmentTimeoutError{Section: req.SectionName}
		}
		return nil, fmt.Errorf("judgment call failed: %w", err)
	}

	parsed, err := j.decode(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("judgment response for %s: %w", req.SectionName, err)
	}

	j.logger.Debug().
		Str("section", req.SectionName).
		Int("evaluations", len(parsed.Evaluations)).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Msg("judgment completed")

	return parsed, nil
}

type evaluationPayload struct {
	Evaluations []struct {
		ID      string `json:"id"`
		Passed  bool   `json:"passed"`
		Details string `json:"details"`
	} `json:"evaluations"`
	Findings []analysis.Finding `json:"findings"`
	Summary  string             `json:"summary"`
}

func (j *LLMJudge) decode(text string) (*judgment.Response, error) {
	clean := llmjson.ExtractPayload(text)

	result, err := gojsonschema.Validate(evaluationSchemaLoader, gojsonschema.NewStringLoader(clean))
	if err != nil || !result.Valid() {
		repaired := llmjson.Repair(clean)
		if res2, err2 := gojsonschema.Validate(evaluationSchemaLoader, gojsonschema.NewStringLoader(repaired)); err2 == nil && res2.Valid() {
			j.logger.Debug().Msg("judgment JSON repaired")
			clean = repaired
		} else if err == nil {
			var issues []string
			for _, desc := range result.Errors() {
				issues = append(issues, desc.String())
			}
			return nil, fmt.Errorf("payload failed schema validation: %s", strings.Join(issues, "; "))
		} else {
			return nil, fmt.Errorf("payload is not valid JSON: %w", err)
		}
	}

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	out := &judgment.Response{
		Evaluations: make(map[string]judgment.Evaluation, len(payload.Evaluations)),
		Findings:    payload.Findings,
		Summary:     payload.Summary,
	}
	for _, e := range payload.Evaluations {
		out.Evaluations[e.ID] = judgment.Evaluation{Passed: e.Passed, Rationale: e.Details}
	}
	return out, nil
}

func buildEvaluationPrompt(req judgment.Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Section: %s\n\n", req.SectionName)

	b.WriteString("## Data to Analyze:\n```json\n")
	if req.SectionData == nil {
		b.WriteString("null (section not configured)")
	} else if data, err := json.MarshalIndent(req.SectionData, "", "  "); err == nil {
		b.Write(data)
	}
	b.WriteString("\n```\n\n")

	if len(req.Context) > 0 {
		b.WriteString("## Surrounding Context:\n```json\n")
		if data, err := json.MarshalIndent(req.Context, "", "  "); err == nil {
			b.Write(data)
		}
		b.WriteString("\n```\n\n")
	}

	b.WriteString("## Checklist Items to Evaluate:\n")
	for _, item := range req.Items {
		fmt.Fprintf(&b, "- %s: %s\n", item.ID, item.Description)
	}

	b.WriteString(`
## Instructions:
For each checklist item, determine if the configuration passes or fails the criterion.
Be fair but thorough - a check should pass if the configuration reasonably meets the criterion.

Output your evaluation as JSON with this exact structure:
{
  "evaluations": [
    {"id": "item_id_here", "passed": true, "details": "Brief explanation of why it passed or failed"}
  ],
  "findings": [
    {
      "category": "best_practice" | "warning" | "suggestion",
      "severity": "high" | "medium" | "low",
      "description": "Description of the issue (only for failed items)",
      "recommendation": "Specific actionable recommendation",
      "reference": "Related checklist item ID"
    }
  ],
  "summary": "Brief overall summary of the section's compliance"
}

Only include findings for checklist items that FAILED. Do not create findings for passing items.`)

	return b.String()
}
