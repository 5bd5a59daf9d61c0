package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles reads custom prompts from the configured file paths into c.AI.LoadedPrompts
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	prompts := &c.AI.CustomPrompts
	loaded := LoadedPrompts{}

	if prompts.SystemFile != "" {
		content, err := c.loadPromptFromFile(prompts.SystemFile, "system")
		if err != nil {
			return err
		}
		loaded.System = content
		loaded.SystemFrom = prompts.SystemFile
	}

	if prompts.UserFile != "" {
		content, err := c.loadPromptFromFile(prompts.UserFile, "user")
		if err != nil {
			return err
		}
		loaded.User = content
		loaded.UserFrom = prompts.UserFile
	}

	c.AI.LoadedPrompts = loaded
	c.logPromptLoadingSummary()

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)",
		promptType, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", promptType, filePath))
			return
		}

		info, err := os.Stat(absPath)
		switch {
		case os.IsNotExist(err):
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", promptType, absPath))
		case err == nil && info.IsDir():
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt path is a directory: %s", promptType, absPath))
		}
	}

	validateFile(c.AI.CustomPrompts.SystemFile, "system")
	validateFile(c.AI.CustomPrompts.UserFile, "user")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs where the parse prompts will come from
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	log.Printf("[CONFIG] System prompt: %s", promptSource(c.AI.LoadedPrompts.SystemFrom, c.AI.CustomPrompts.System))
	log.Printf("[CONFIG] User prompt: %s", promptSource(c.AI.LoadedPrompts.UserFrom, c.AI.CustomPrompts.User))

	if n := c.AI.LoadedPrompts.Count(); n == 0 {
		log.Println("[CONFIG] No custom prompts loaded from files")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded from files: %d", n)
	}

	log.Println("[CONFIG] ==========================================")
}

func promptSource(file, inline string) string {
	switch {
	case file != "":
		return "file " + file
	case inline != "":
		return "config"
	default:
		return "built-in default"
	}
}
