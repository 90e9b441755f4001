package ai

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/spacecheck/internal/domain/ai"
)

// MockProvider returns a canned response; used by the "mock" factory entry
// for offline development and by tests.
type MockProvider struct {
	Model string
	Text  string
	Fail  bool
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if m.Fail {
		return nil, errors.New("mock provider failure")
	}
	text := m.Text
	if text == "" {
		text = `{"evaluations": [], "findings": [], "summary": "mock"}`
	}
	return &ai.CompletionResponse{
		Text:  text,
		Model: "mock-model",
	}, nil
}
