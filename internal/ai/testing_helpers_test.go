package ai

import (
	"io"
	"log/slog"
	"time"

	"resumeparser/internal/config"
	"resumeparser/internal/errors"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		Provider:   config.ProviderBedrock,
		Region:     config.DefaultRegion,
		Model:      config.DefaultBedrockModel,
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		MaxTokens:  4096,
	}
}
