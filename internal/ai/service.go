package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"resumeparser/internal/config"
	"resumeparser/internal/errors"
	"resumeparser/internal/types"
)

// NewProvider creates the extraction provider selected by the AI configuration
func NewProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (Provider, error) {
	logger.Debug("Initializing AI provider",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"region", cfg.Region,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	switch cfg.Provider {
	case config.ProviderBedrock:
		return NewBedrockProvider(ctx, cfg, logger)
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// invocationError tags a failed model call
func invocationError(err error) error {
	return errors.NewAIError(errors.ErrCodeModelInvocationFailed,
		"Parsing failed: "+err.Error(), err)
}

// decodeError tags a model payload that could not be turned into a ParsedResume.
// Schema violations are reported as such; unreadable payloads count as failed invocations.
func decodeError(err error) error {
	var verr *types.ValidationError
	if stderrors.As(err, &verr) {
		return errors.NewValidationError(errors.ErrCodeSchemaValidationFailed,
			"Schema validation failed: "+verr.Error(), err)
	}
	return invocationError(err)
}
