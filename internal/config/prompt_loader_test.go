package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "Test system prompt for parsing"
	userPromptContent := "Extract this resume:\n%s"

	systemPromptFile := filepath.Join(tempDir, "system.parse.md")
	userPromptFile := filepath.Join(tempDir, "user.parse.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}

	if err := os.WriteFile(userPromptFile, []byte(userPromptContent+"\n\n"), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemFile: systemPromptFile,
				UserFile:   userPromptFile,
				System:     "inline system prompt",
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if config.AI.LoadedPrompts.System != systemPromptContent {
		t.Errorf("Expected loaded system prompt '%s', got '%s'", systemPromptContent, config.AI.LoadedPrompts.System)
	}

	if config.AI.LoadedPrompts.User != userPromptContent {
		t.Errorf("Expected trimmed user prompt '%s', got '%s'", userPromptContent, config.AI.LoadedPrompts.User)
	}

	// File content wins over the inline value
	if got := config.AI.SystemPrompt(); got != systemPromptContent {
		t.Errorf("Expected file prompt to take priority, got '%s'", got)
	}

	if config.AI.LoadedPrompts.Count() != 2 {
		t.Errorf("Expected 2 loaded prompts, got %d", config.AI.LoadedPrompts.Count())
	}

	// File paths are preserved
	if config.AI.CustomPrompts.SystemFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestPromptResolutionWithoutFiles(t *testing.T) {
	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{User: "Resume:\n%s"}}}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := config.AI.UserPromptTemplate(); got != "Resume:\n%s" {
		t.Errorf("Expected inline user template, got '%s'", got)
	}
	if got := config.AI.SystemPrompt(); got != "" {
		t.Errorf("Expected empty system override, got '%s'", got)
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{SystemFile: validFile}}}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.CustomPrompts.UserFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}

	config.AI.CustomPrompts.UserFile = tempDir
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for a directory")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	if err := os.WriteFile(testFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	config := &Config{}
	loadedContent, err := config.loadPromptFromFile(testFile, "system")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}

	if loadedContent != content {
		t.Errorf("Expected content '%s', got '%s'", content, loadedContent)
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("  \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}

	if _, err = config.loadPromptFromFile(emptyFile, "system"); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err = config.loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestUserPromptTemplateRequiresPlaceholder(t *testing.T) {
	tempDir := t.TempDir()
	userFile := filepath.Join(tempDir, "user.md")
	if err := os.WriteFile(userFile, []byte("No placeholder here"), 0600); err != nil {
		t.Fatalf("Failed to create user prompt file: %v", err)
	}

	config := validTestConfig()
	config.AI.CustomPrompts.UserFile = userFile

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	if err := config.Validate(); err == nil {
		t.Error("Expected validation to reject a user template without %s")
	}
}

func validTestConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:   ProviderBedrock,
			Region:     DefaultRegion,
			Model:      DefaultBedrockModel,
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		App: AppConfig{
			LogLevel:            "info",
			DefaultFormat:       "json",
			SupportedFormats:    []string{"json", "text", "markdown"},
			MaxFileSize:         10 * 1024 * 1024,
			MinTextLength:       20,
			MaxResponsibilities: 5,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8000",
			TLS:  TLSConfig{Mode: "disabled"},
		},
	}
}
