package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	"resumeparser/internal/config"
	"resumeparser/internal/errors"
	"resumeparser/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// parseToolName is the tool the model is forced to call with the resume fields
const parseToolName = "ParsedResume"

// converseAPI is the subset of the Bedrock runtime client used for extraction
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider extracts resumes through the Bedrock Converse API with a forced tool call
type BedrockProvider struct {
	client         converseAPI
	config         config.AIConfig
	toolConfig     *brtypes.ToolConfiguration
	circuitBreaker *CircuitBreaker[*bedrockruntime.ConverseOutput]
	retry          retryPolicy
	logger         *errors.Logger
}

var _ Provider = (*BedrockProvider)(nil)

// NewBedrockProvider creates a Bedrock runtime client from the AI configuration.
// Static credentials are used when configured, the default AWS chain otherwise.
func NewBedrockProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (*BedrockProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to load AWS configuration", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		// retries happen in retryPolicy only, so ai.maxRetries is the real attempt budget
		o.Retryer = aws.NopRetryer{}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newBedrockProvider(client, cfg, logger)
}

func newBedrockProvider(client converseAPI, cfg config.AIConfig, logger *errors.Logger) (*BedrockProvider, error) {
	toolConfig, err := buildParseToolConfig()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "Failed to build extraction tool schema", err)
	}

	return &BedrockProvider{
		client:         client,
		config:         cfg,
		toolConfig:     toolConfig,
		circuitBreaker: NewCircuitBreaker[*bedrockruntime.ConverseOutput](config.ProviderBedrock, cfg.CircuitBreaker, logger),
		retry:          newRetryPolicy(cfg.MaxRetries, isRetryableAWSError, logger),
		logger:         logger,
	}, nil
}

// buildParseToolConfig declares the ParsedResume tool and forces the model to call it
func buildParseToolConfig() (*brtypes.ToolConfiguration, error) {
	schema, err := types.ResponseSchemaMap()
	if err != nil {
		return nil, err
	}
	// Bedrock rejects draft identifiers in tool schemas
	delete(schema, "$schema")

	return &brtypes.ToolConfiguration{
		Tools: []brtypes.Tool{
			&brtypes.ToolMemberToolSpec{
				Value: brtypes.ToolSpecification{
					Name:        aws.String(parseToolName),
					Description: aws.String("Structured fields extracted from a resume"),
					InputSchema: &brtypes.ToolInputSchemaMemberJson{
						Value: document.NewLazyDocument(schema),
					},
				},
			},
		},
		ToolChoice: &brtypes.ToolChoiceMemberTool{
			Value: brtypes.SpecificToolChoice{Name: aws.String(parseToolName)},
		},
	}, nil
}

// Name returns the provider identifier
func (b *BedrockProvider) Name() string {
	return config.ProviderBedrock
}

// Extract sends the prompt to the configured model and decodes the forced tool call
func (b *BedrockProvider) Extract(ctx context.Context, prompt Prompt) (*types.ParsedResume, *TokenUsage, error) {
	tracer := otel.Tracer("resumeparser.ai.bedrock")
	ctx, span := tracer.Start(ctx, "bedrock.extract")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderBedrock),
		attribute.String("ai.model", b.config.Model),
		attribute.Float64("ai.temperature", float64(b.config.Temperature)),
		attribute.Int("input.prompt_length", len(prompt.User)),
	)

	input := b.buildConverseInput(prompt)

	out, err := b.circuitBreaker.Execute(func() (*bedrockruntime.ConverseOutput, error) {
		return executeWithRetry(ctx, b.retry, "converse", func() (*bedrockruntime.ConverseOutput, error) {
			return b.client.Converse(ctx, input)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, invocationError(err)
	}

	usage := bedrockTokenUsage(out)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	raw, err := toolUseInput(out)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, usage, invocationError(err)
	}

	resume, err := types.DecodeParsedResume(raw)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, usage, decodeError(err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	b.logger.Debug("Bedrock extraction completed",
		"model", b.config.Model,
		"stop_reason", string(out.StopReason))
	return resume, usage, nil
}

func (b *BedrockProvider) buildConverseInput(prompt Prompt) *bedrockruntime.ConverseInput {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.config.Model),
		Messages: []brtypes.Message{
			{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: prompt.User}},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			Temperature: aws.Float32(b.config.Temperature),
		},
		ToolConfig: b.toolConfig,
	}
	if b.config.MaxTokens > 0 {
		input.InferenceConfig.MaxTokens = aws.Int32(b.config.MaxTokens)
	}
	if prompt.System != "" {
		input.System = []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: prompt.System}}
	}
	return input
}

// toolUseInput returns the JSON arguments of the ParsedResume tool call
func toolUseInput(out *bedrockruntime.ConverseOutput) ([]byte, error) {
	if out == nil {
		return nil, fmt.Errorf("empty response from model")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("model response carries no message")
	}

	for _, block := range msg.Value.Content {
		tu, ok := block.(*brtypes.ContentBlockMemberToolUse)
		if !ok || aws.ToString(tu.Value.Name) != parseToolName {
			continue
		}
		if tu.Value.Input == nil {
			return nil, fmt.Errorf("tool call %s has no input", parseToolName)
		}
		raw, err := tu.Value.Input.MarshalSmithyDocument()
		if err != nil {
			return nil, fmt.Errorf("read tool call input: %w", err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("model did not call the %s tool (stop reason %q)", parseToolName, out.StopReason)
}

func bedrockTokenUsage(out *bedrockruntime.ConverseOutput) *TokenUsage {
	if out == nil || out.Usage == nil {
		return nil
	}
	usage := &TokenUsage{
		InputTokens:  int64(aws.ToInt32(out.Usage.InputTokens)),
		OutputTokens: int64(aws.ToInt32(out.Usage.OutputTokens)),
		TotalTokens:  int64(aws.ToInt32(out.Usage.TotalTokens)),
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return usage
}

// isRetryableAWSError retries throttling, transient service faults and network errors
func isRetryableAWSError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException",
			"TooManyRequestsException",
			"ServiceUnavailableException",
			"ServiceUnavailable",
			"InternalServerException",
			"ModelNotReadyException",
			"ModelTimeoutException":
			return true
		}
		return apiErr.ErrorFault() == smithy.FaultServer
	}

	return false
}

// GetModelInfo reports the configured model; availability follows the circuit breaker
func (b *BedrockProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{
		Name:      b.config.Model,
		Provider:  config.ProviderBedrock,
		Available: b.circuitBreaker.IsHealthy(),
	}
	if !info.Available {
		info.Error = "circuit breaker open"
	}
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (b *BedrockProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":   b.circuitBreaker.GetStats(),
		"overall_healthy": b.circuitBreaker.IsHealthy(),
	}
}

// Close implements Provider; the Bedrock client holds no resources to release
func (b *BedrockProvider) Close() error {
	return nil
}
