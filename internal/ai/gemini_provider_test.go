package ai

import (
	"fmt"
	"net/http"
	"testing"

	"resumeparser/internal/config"
	"resumeparser/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestBuildResumeSchemaCoversJSONSchema(t *testing.T) {
	jsonSchema, err := types.ResponseSchemaMap()
	require.NoError(t, err)
	props, ok := jsonSchema["properties"].(map[string]any)
	require.True(t, ok)

	schema := buildResumeSchema()
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"full_name"}, schema.Required)
	assert.Len(t, schema.PropertyOrdering, len(schema.Properties))

	for name := range props {
		assert.Contains(t, schema.Properties, name)
	}
	for name := range schema.Properties {
		assert.Contains(t, props, name)
	}

	skills := schema.Properties["skills"].Items
	assert.Equal(t, types.SkillCategories(), skills.Properties["category"].Enum)
	assert.Equal(t, types.ProficiencyLevels(), skills.Properties["proficiency"].Enum)

	years := schema.Properties["years_of_experience"]
	require.NotNil(t, years.Maximum)
	assert.Equal(t, float64(50), *years.Maximum)
}

func TestBuildGeminiConfig(t *testing.T) {
	cfg := testAIConfig()
	cfg.Provider = config.ProviderGemini
	cfg.Temperature = 0.2

	genaiConfig := buildGeminiConfig(cfg)
	assert.Equal(t, "application/json", genaiConfig.ResponseMIMEType)
	require.NotNil(t, genaiConfig.Temperature)
	assert.Equal(t, float32(0.2), *genaiConfig.Temperature)
	assert.Equal(t, int32(4096), genaiConfig.MaxOutputTokens)
	assert.NotNil(t, genaiConfig.ResponseSchema)
}

func TestIsRetryableGoogleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"service unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, false},
		{"genai server error", genai.APIError{Code: http.StatusInternalServerError}, true},
		{"genai invalid argument", genai.APIError{Code: http.StatusBadRequest}, false},
		{"wrapped", fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusBadGateway}), true},
		{"plain", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableGoogleError(tt.err))
		})
	}
}

func TestExtractTokenUsage(t *testing.T) {
	assert.Nil(t, extractTokenUsage(nil))
	assert.Nil(t, extractTokenUsage(&genai.GenerateContentResponse{}))

	usage := extractTokenUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: 40,
			TotalTokenCount:      140,
		},
	})
	require.NotNil(t, usage)
	assert.Equal(t, int64(100), usage.InputTokens)
	assert.Equal(t, int64(40), usage.OutputTokens)
	assert.Equal(t, int64(140), usage.TotalTokens)
}
