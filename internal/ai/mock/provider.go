// Package mock provides a canned AI provider for tests and local
// development without outbound API calls.
package mock

import (
	"context"

	ai "github.com/contentradar/contentradar/internal/ai/aierrors"
	"github.com/contentradar/contentradar/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "{}", nil
}

// defaultCompletion is a schema-conformant truth analysis response.
const defaultCompletion = `{
  "fact": ["Mock fact extracted from the evidence"],
  "observation": ["Mock observation about audience behavior"],
  "insight": ["Mock insight into why this content resonates"],
  "human_truth": ["Mock human truth driving engagement"],
  "cultural_moment": ["Mock cultural moment this taps into"],
  "strategic_focus": ["Mock strategic focus"],
  "competitive_intelligence": ["Mock competitive intelligence"],
  "cohorts": [
    {
      "name": "Early adopters",
      "description": "Mock cohort of first movers",
      "behavior_patterns": ["shares quickly"],
      "platforms": ["web"],
      "size": "medium",
      "engagement": "high"
    }
  ]
}`

// NewMockProvider returns a MockProvider with a sensible default response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return defaultCompletion, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
