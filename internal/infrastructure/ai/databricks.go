// Package ai provides judgment-backend implementations on top of LLM
// serving endpoints, with resilience decorators and response parsing.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/spacecheck/internal/domain/ai"
)

const defaultModel = "databricks-claude-sonnet-4"

// DatabricksProvider calls a Databricks model serving endpoint. The endpoint
// speaks the OpenAI-compatible chat format.
type DatabricksProvider struct {
	Model      string
	Token      string
	baseURL    string       // defaults to {host}/serving-endpoints
	httpClient *http.Client // for testing - defaults to http.DefaultClient
}

// NewDatabricksProvider creates a provider against the workspace host.
func NewDatabricksProvider(host, model, token string) *DatabricksProvider {
	if model == "" {
		model = defaultModel
	}
	return &DatabricksProvider{
		Model:   model,
		Token:   token,
		baseURL: strings.TrimSuffix(host, "/") + "/serving-endpoints",
	}
}

// NewDatabricksProviderWithClient creates a provider with a custom base URL
// and HTTP client (for testing).
func NewDatabricksProviderWithClient(model, token, baseURL string, client *http.Client) *DatabricksProvider {
	if model == "" {
		model = defaultModel
	}
	return &DatabricksProvider{
		Model:      model,
		Token:      token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
	}
}

func (p *DatabricksProvider) ID() string {
	return "databricks:" + p.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invocationRequest struct {
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type invocationResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *DatabricksProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if p.Token == "" {
		return nil, fmt.Errorf("Databricks token not provided (set DATABRICKS_TOKEN)")
	}

	messages := []chatMessage{}
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(invocationRequest{
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/invocations", p.baseURL, p.Model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.Token)

	client := p.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serving endpoint returned status: %s", resp.Status)
	}

	var invResp invocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&invResp); err != nil {
		return nil, err
	}

	if len(invResp.Choices) == 0 {
		return nil, fmt.Errorf("serving endpoint returned no choices")
	}
	if invResp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("serving endpoint returned empty content")
	}

	return &ai.CompletionResponse{
		Text:  invResp.Choices[0].Message.Content,
		Model: p.Model,
		Usage: ai.TokenUsage{
			InputTokens:  invResp.Usage.PromptTokens,
			OutputTokens: invResp.Usage.CompletionTokens,
		},
	}, nil
}
