package ai

import (
	"context"

	"resumeparser/internal/types"
)

// Prompt is the pair of messages sent to the model for one extraction
type Prompt struct {
	System string
	User   string
}

// Extractor turns a prompt into a validated ParsedResume.
// Failures are *errors.AppError values carrying SCHEMA_VALIDATION_FAILED when the
// model answered with data that does not fit the schema and MODEL_INVOCATION_FAILED
// for everything else.
type Extractor interface {
	Extract(ctx context.Context, prompt Prompt) (*types.ParsedResume, *TokenUsage, error)
}

// Provider is an Extractor backed by a hosted model
type Provider interface {
	Extractor
	Name() string
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
