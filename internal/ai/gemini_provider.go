package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumeparser/internal/config"
	"resumeparser/internal/errors"
	"resumeparser/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// modelCheckTimeout bounds the model availability lookup used by health checks
const modelCheckTimeout = 10 * time.Second

// GeminiProvider extracts resumes with Gemini structured JSON output
type GeminiProvider struct {
	client         *genai.Client
	config         config.AIConfig
	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]
	retry          retryPolicy
	logger         *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			Timeout: &cfg.Timeout,
		},
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewCircuitBreaker[*genai.GenerateContentResponse](config.ProviderGemini, cfg.CircuitBreaker, logger),
		modelBreaker:   NewModelCircuitBreaker[*genai.Model](config.ProviderGemini, cfg.CircuitBreaker, logger),
		retry:          newRetryPolicy(cfg.MaxRetries, isRetryableGoogleError, logger),
		logger:         logger,
	}, nil
}

// Name returns the provider identifier
func (g *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// Extract generates JSON constrained by the resume schema and decodes it
func (g *GeminiProvider) Extract(ctx context.Context, prompt Prompt) (*types.ParsedResume, *TokenUsage, error) {
	tracer := otel.Tracer("resumeparser.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.extract")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderGemini),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.prompt_length", len(prompt.User)),
	)

	genaiConfig := buildGeminiConfig(g.config)
	if prompt.System != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(ctx, g.retry, "generate_content", func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt.User), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, invocationError(err)
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	text := result.Text()
	if text == "" {
		err := fmt.Errorf("model returned no content")
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, usage, invocationError(err)
	}

	resume, err := types.DecodeParsedResume([]byte(text))
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, usage, decodeError(err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return resume, usage, nil
}

// buildGeminiConfig creates the generation config with the resume response schema
func buildGeminiConfig(cfg config.AIConfig) *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   buildResumeSchema(),
		Temperature:      genai.Ptr(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		genaiConfig.MaxOutputTokens = cfg.MaxTokens
	}
	return genaiConfig
}

func nullableString() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
}

func stringList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// buildResumeSchema mirrors the embedded JSON Schema in Gemini's schema dialect
func buildResumeSchema() *genai.Schema {
	workExperience := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"job_title":        {Type: genai.TypeString},
			"company":          {Type: genai.TypeString},
			"location":         nullableString(),
			"start_date":       nullableString(),
			"end_date":         nullableString(),
			"duration":         nullableString(),
			"responsibilities": stringList(),
		},
		Required: []string{"job_title", "company"},
	}

	education := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"degree":         {Type: genai.TypeString},
			"institution":    {Type: genai.TypeString},
			"field_of_study": nullableString(),
			"location":       nullableString(),
			"graduation_year": {
				Type:     genai.TypeInteger,
				Nullable: genai.Ptr(true),
				Minimum:  genai.Ptr(float64(types.MinGraduationYear)),
				Maximum:  genai.Ptr(float64(types.MaxGraduationYear)),
			},
			"gpa": {
				Type:     genai.TypeNumber,
				Nullable: genai.Ptr(true),
				Minimum:  genai.Ptr(float64(types.MinGPA)),
				Maximum:  genai.Ptr(float64(types.MaxGPA)),
			},
		},
		Required: []string{"degree", "institution"},
	}

	skill := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString},
			"category":    {Type: genai.TypeString, Format: "enum", Enum: types.SkillCategories(), Nullable: genai.Ptr(true)},
			"proficiency": {Type: genai.TypeString, Format: "enum", Enum: types.ProficiencyLevels(), Nullable: genai.Ptr(true)},
		},
		Required: []string{"name"},
	}

	certification := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":                 {Type: genai.TypeString},
			"issuing_organization": nullableString(),
			"issue_date":           nullableString(),
			"expiry_date":          nullableString(),
			"credential_id":        nullableString(),
		},
		Required: []string{"name"},
	}

	project := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":        {Type: genai.TypeString},
			"description":  {Type: genai.TypeString},
			"technologies": stringList(),
			"url":          nullableString(),
			"date":         nullableString(),
		},
		Required: []string{"title", "description"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"full_name":       {Type: genai.TypeString, MinLength: genai.Ptr[int64](1)},
			"email":           nullableString(),
			"phone":           nullableString(),
			"location":        nullableString(),
			"linkedin_url":    nullableString(),
			"github_url":      nullableString(),
			"portfolio_url":   nullableString(),
			"summary":         nullableString(),
			"work_experience": {Type: genai.TypeArray, Items: workExperience},
			"education":       {Type: genai.TypeArray, Items: education},
			"skills":          {Type: genai.TypeArray, Items: skill},
			"certifications":  {Type: genai.TypeArray, Items: certification},
			"projects":        {Type: genai.TypeArray, Items: project},
			"languages":       stringList(),
			"years_of_experience": {
				Type:     genai.TypeInteger,
				Nullable: genai.Ptr(true),
				Minimum:  genai.Ptr(float64(types.MinYearsOfExperience)),
				Maximum:  genai.Ptr(float64(types.MaxYearsOfExperience)),
			},
			"current_job_title": nullableString(),
		},
		Required: []string{"full_name"},
		PropertyOrdering: []string{
			"full_name", "email", "phone", "location", "linkedin_url", "github_url", "portfolio_url",
			"summary", "work_experience", "education", "skills", "certifications", "projects",
			"languages", "years_of_experience", "current_job_title",
		},
	}
}

// isRetryableGoogleError determines if an error should trigger a retry
func isRetryableGoogleError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}
	var genaiErrPtr *genai.APIError
	if stderrors.As(err, &genaiErrPtr) {
		return isRetryableStatus(genaiErrPtr.Code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:     g.config.Model,
		Provider: config.ProviderGemini,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", config.ProviderGemini,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in single-shot usage
	return nil
}
