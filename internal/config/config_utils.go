package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envAliases maps config keys to the environment names honoured besides the RESUMEPARSER_ prefixed ones.
// The prefixed name always comes first so it wins when both are set.
var envAliases = map[string][]string{
	"ai.region":          {"RESUMEPARSER_AI_REGION", "AWS_REGION"},
	"ai.model":           {"RESUMEPARSER_AI_MODEL", "BEDROCK_MODEL_ID"},
	"ai.apiKey":          {"RESUMEPARSER_AI_APIKEY", "GEMINI_API_KEY"},
	"ai.accessKeyId":     {"RESUMEPARSER_AI_ACCESSKEYID", "AWS_ACCESS_KEY_ID"},
	"ai.secretAccessKey": {"RESUMEPARSER_AI_SECRETACCESSKEY", "AWS_SECRET_ACCESS_KEY"},
	"ai.sessionToken":    {"RESUMEPARSER_AI_SESSIONTOKEN", "AWS_SESSION_TOKEN"},
}

// loadDotEnv loads a .env file from the working directory into the process environment.
// Variables already set in the environment are left untouched.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		log.Printf("[CONFIG] Failed to load .env file: %v", err)
		return
	}
	log.Println("[CONFIG] Loaded environment from .env")
}

// bindEnvAliases registers the alternative environment names for a few keys
func bindEnvAliases(v *viper.Viper) error {
	for key, names := range envAliases {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyModelFallback()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyModelFallback swaps the Bedrock default model for the Gemini one when
// gemini is selected and no model was chosen explicitly
func (c *Config) applyModelFallback() {
	if c.AI.Provider == ProviderGemini && c.AI.Model == DefaultBedrockModel {
		c.AI.Model = DefaultGeminiModel
	}
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMEPARSER_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
	if len(c.Server.CORSAllowedOrigins) == 1 && strings.Contains(c.Server.CORSAllowedOrigins[0], ",") {
		c.Server.CORSAllowedOrigins = splitAndTrim(c.Server.CORSAllowedOrigins[0])
	}
}

func splitAndTrim(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// isSensitiveEnv reports whether an environment variable name holds a secret
func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "key") || strings.Contains(lower, "secret") || strings.Contains(lower, "token")
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMEPARSER_AI_PROVIDER",
		"RESUMEPARSER_AI_REGION",
		"RESUMEPARSER_AI_MODEL",
		"RESUMEPARSER_AI_APIKEY",
		"RESUMEPARSER_SERVER_PORT",
		"RESUMEPARSER_SERVER_HOST",
		"RESUMEPARSER_SERVER_APIKEYS",
		"RESUMEPARSER_APP_LOGLEVEL",
		"RESUMEPARSER_VAULT_ENABLED",
		"AWS_REGION",
		"BEDROCK_MODEL_ID",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveEnv(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	switch c.AI.Provider {
	case ProviderBedrock:
		log.Printf("[CONFIG] AI Region: %s", c.AI.Region)
		if c.AI.Endpoint != "" {
			log.Printf("[CONFIG] AI Endpoint: %s", c.AI.Endpoint)
		}
		if c.AI.HasStaticCredentials() {
			log.Println("[CONFIG] AWS Credentials: ***STATIC***")
		} else {
			log.Println("[CONFIG] AWS Credentials: default chain")
		}
	case ProviderGemini:
		if c.AI.APIKey != "" {
			log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
		} else {
			log.Println("[CONFIG] AI API Key: ***NOT SET***")
		}
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Min Text Length: %d", c.App.MinTextLength)
	log.Printf("[CONFIG] Enforce Responsibility Limit: %t", c.App.EnforceResponsibilityLimit)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}
