package cli

import (
	"context"
	"fmt"

	"resumeparser/internal/ai"
	"resumeparser/internal/config"
	"resumeparser/internal/errors"
	"resumeparser/internal/extractor"
	"resumeparser/internal/parser"
)

// buildPipeline wires the configured provider into a parser.
// The caller owns the returned provider and must close it.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*parser.Parser, ai.Provider, error) {
	provider, err := ai.NewProvider(ctx, cfg.AI, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	prompts := ai.NewPromptBuilder(cfg.AI.SystemPrompt(), cfg.AI.UserPromptTemplate())
	p := parser.New(
		extractor.NewPDFExtractor(logger),
		provider,
		prompts,
		parser.OptionsFromConfig(cfg.App),
		logger,
	)
	return p, provider, nil
}

func closeProvider(provider ai.Provider, logger *errors.Logger) {
	if err := provider.Close(); err != nil {
		logger.LogError(err, "Failed to close AI provider")
	}
}
