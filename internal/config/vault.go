package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumeparser/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets lists the KV v2 paths secrets are read from. Empty paths are skipped.
type VaultSecrets struct {
	// APIKeys holds a "keys" field with comma separated server API keys
	APIKeys string `mapstructure:"apiKeys"`
	// GeminiKey holds an "api_key" field for the gemini provider
	GeminiKey string `mapstructure:"geminiKey"`
	// AWSCredentials holds access_key_id, secret_access_key and optional
	// session_token and region fields for the bedrock provider
	AWSCredentials string `mapstructure:"awsCredentials"`
	// TLSCerts holds PEM "cert" and "key" fields for the HTTP server
	TLSCerts string `mapstructure:"tlsCerts"`
}

// secretReader is the part of the Vault logical API used here
type secretReader interface {
	Read(path string) (*api.Secret, error)
}

// VaultClient reads KV v2 secrets
type VaultClient struct {
	reader secretReader
	logger *errors.Logger
}

// VaultSecret is a decoded KV v2 secret
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient connects to Vault and checks its health
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := vaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiConfig.Address, err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("vault at %s is sealed", apiConfig.Address)
	}

	if logger != nil {
		logger.Info("Connected to Vault",
			"address", apiConfig.Address,
			"namespace", cfg.Namespace,
			"version", health.Version,
			"cluster_name", health.ClusterName,
			"token_prefix", maskSecret(token))
	}

	return &VaultClient{reader: client.Logical(), logger: logger}, nil
}

// vaultToken returns the configured token, reading the token file when no inline token is set
func vaultToken(cfg VaultConfig) (string, error) {
	if token := strings.TrimSpace(cfg.Token); token != "" {
		return token, nil
	}

	if cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		if token := strings.TrimSpace(string(raw)); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("vault token file %s is empty", cfg.TokenFile)
	}

	return "", fmt.Errorf("vault token is required when vault is enabled")
}

// ReadKV2 reads and decodes the secret at path
func (vc *VaultClient) ReadKV2(path string) (*VaultSecret, error) {
	if vc == nil || vc.reader == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	if vc.logger != nil {
		vc.logger.Debug("Reading secret from Vault", "path", path)
	}

	secret, err := vc.reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	return decodeKV2(secret, path)
}

// decodeKV2 unwraps the data and metadata envelopes of a KV v2 response
func decodeKV2(secret *api.Secret, path string) (*VaultSecret, error) {
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}

	version, err := secretVersion(metadata["version"])
	if err != nil {
		return nil, fmt.Errorf("secret metadata at %s: %w", path, err)
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// secretVersion accepts the numeric shapes the Vault client can decode a version into
func secretVersion(raw any) (int64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("missing 'version' field")
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type for version: %T", raw)
	}
}

// String returns the non-empty string stored under key
func (s *VaultSecret) String(key string) (string, error) {
	value, ok := s.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string", key)
	}
	if strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("value for key '%s' is empty", key)
	}
	return str, nil
}

// optionalString returns the string under key, or "" when absent or not a string
func (s *VaultSecret) optionalString(key string) string {
	str, _ := s.Data[key].(string)
	return str
}

// secretBinding ties a Vault path to the config fields it fills
type secretBinding struct {
	name  string
	path  string
	apply func(cfg *Config, secret *VaultSecret) error
}

func secretBindings(cfg *Config) []secretBinding {
	paths := cfg.Vault.Secrets
	return []secretBinding{
		{name: "server API keys", path: paths.APIKeys, apply: applyAPIKeys},
		{name: "Gemini API key", path: paths.GeminiKey, apply: applyGeminiKey},
		{name: "AWS credentials", path: paths.AWSCredentials, apply: applyAWSCredentials},
		{name: "TLS certificate", path: paths.TLSCerts, apply: applyTLSContent},
	}
}

// ApplyVaultSecrets loads every configured secret from Vault into cfg.
// Vault values replace what came from files and the environment.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(client, cfg, logger)
}

// applySecrets reads each bound path and applies it. The first failure stops loading.
func applySecrets(client *VaultClient, cfg *Config, logger *errors.Logger) error {
	loaded := 0
	for _, binding := range secretBindings(cfg) {
		if binding.path == "" {
			continue
		}

		secret, err := client.ReadKV2(binding.path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", binding.name, err)
		}
		if err := binding.apply(cfg, secret); err != nil {
			return fmt.Errorf("invalid %s secret at %s: %w", binding.name, binding.path, err)
		}

		loaded++
		if logger != nil {
			logger.Info("Secret loaded from Vault",
				"secret", binding.name,
				"path", binding.path,
				"version", secret.Version)
		}
	}

	if logger != nil {
		logger.Info("Finished applying secrets from Vault", "secrets_loaded", loaded)
	}
	return nil
}

func applyAPIKeys(cfg *Config, secret *VaultSecret) error {
	raw, err := secret.String("keys")
	if err != nil {
		return err
	}
	keys := splitAndTrim(raw)
	if len(keys) == 0 {
		return fmt.Errorf("no API keys in 'keys'")
	}
	cfg.Server.APIKeys = keys
	return nil
}

func applyGeminiKey(cfg *Config, secret *VaultSecret) error {
	key, err := secret.String("api_key")
	if err != nil {
		return err
	}
	cfg.AI.APIKey = key
	return nil
}

// applyAWSCredentials switches the bedrock client from the default chain to static credentials
func applyAWSCredentials(cfg *Config, secret *VaultSecret) error {
	accessKeyID := secret.optionalString("access_key_id")
	secretAccessKey := secret.optionalString("secret_access_key")
	if accessKeyID == "" || secretAccessKey == "" {
		return fmt.Errorf("secret must contain access_key_id and secret_access_key")
	}

	cfg.AI.AccessKeyID = accessKeyID
	cfg.AI.SecretAccessKey = secretAccessKey
	cfg.AI.SessionToken = secret.optionalString("session_token")
	if region := secret.optionalString("region"); region != "" {
		cfg.AI.Region = region
	}
	return nil
}

// applyTLSContent stores PEM content for the server certificate. File paths are not accepted.
func applyTLSContent(cfg *Config, secret *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file"} {
		if _, ok := secret.Data[field]; ok {
			return fmt.Errorf("'%s' is not supported, store the PEM content in '%s' instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}

	cert, err := secret.String("cert")
	if err != nil {
		return err
	}
	key, err := secret.String("key")
	if err != nil {
		return err
	}

	cfg.Server.TLS.CertContent = cert
	cfg.Server.TLS.KeyContent = key
	return nil
}

// maskSecret keeps the first four characters of a secret for logs
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
