package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumeparser/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves KV v2 responses from memory
type fakeReader struct {
	secrets map[string]map[string]any
	reads   []string
}

func (f *fakeReader) Read(path string) (*api.Secret, error) {
	f.reads = append(f.reads, path)
	data, ok := f.secrets[path]
	if !ok {
		return nil, nil
	}
	return kv2(data, json.Number("3")), nil
}

func kv2(data map[string]any, version any) *api.Secret {
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": version},
	}}
}

func newTestVaultClient(secrets map[string]map[string]any) (*VaultClient, *fakeReader) {
	reader := &fakeReader{secrets: secrets}
	logger := errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
	return &VaultClient{reader: reader, logger: logger}, reader
}

func TestSecretVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "int64", input: int64(42), expected: 42},
		{name: "int", input: 5, expected: 5},
		{name: "float64", input: float64(42), expected: 42},
		{name: "string", input: "12", expected: 12},
		{name: "invalid string", input: "not-a-number", expectError: true},
		{name: "fractional json number", input: json.Number("1.5"), expectError: true},
		{name: "missing", input: nil, expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := secretVersion(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecodeKV2(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		secret, err := decodeKV2(kv2(map[string]any{"api_key": "abc"}, json.Number("2")), "secret/data/gemini")
		require.NoError(t, err)
		assert.Equal(t, int64(2), secret.Version)
		assert.Equal(t, "abc", secret.Data["api_key"])
	})

	tests := []struct {
		name     string
		secret   *api.Secret
		errorMsg string
	}{
		{name: "nil secret", secret: nil, errorMsg: "secret not found"},
		{name: "nil data", secret: &api.Secret{}, errorMsg: "secret not found"},
		{
			name:     "KV v1 layout",
			secret:   &api.Secret{Data: map[string]any{"api_key": "abc"}},
			errorMsg: "missing 'data' field",
		},
		{
			name:     "missing metadata",
			secret:   &api.Secret{Data: map[string]any{"data": map[string]any{}}},
			errorMsg: "missing 'metadata' field",
		},
		{
			name:     "missing version",
			secret:   &api.Secret{Data: map[string]any{"data": map[string]any{}, "metadata": map[string]any{}}},
			errorMsg: "missing 'version' field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeKV2(tt.secret, "secret/data/x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestVaultSecretString(t *testing.T) {
	secret := &VaultSecret{Data: map[string]any{"ok": "value", "blank": "  ", "number": 3}}

	got, err := secret.String("ok")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	_, err = secret.String("missing")
	assert.ErrorContains(t, err, "not found")
	_, err = secret.String("blank")
	assert.ErrorContains(t, err, "is empty")
	_, err = secret.String("number")
	assert.ErrorContains(t, err, "is not a string")

	assert.Empty(t, secret.optionalString("number"))
}

func TestApplyAWSCredentials(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expectError bool
		wantRegion  string
		wantToken   string
	}{
		{
			name:       "keys only",
			data:       map[string]any{"access_key_id": "AKIA123", "secret_access_key": "secret"},
			wantRegion: DefaultRegion,
		},
		{
			name: "with session token and region",
			data: map[string]any{
				"access_key_id":     "AKIA123",
				"secret_access_key": "secret",
				"session_token":     "token",
				"region":            "us-east-1",
			},
			wantRegion: "us-east-1",
			wantToken:  "token",
		},
		{name: "missing secret key", data: map[string]any{"access_key_id": "AKIA123"}, expectError: true},
		{name: "wrong types", data: map[string]any{"access_key_id": 1, "secret_access_key": 2}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AI: AIConfig{Region: DefaultRegion}}
			err := applyAWSCredentials(cfg, &VaultSecret{Data: tt.data})
			if tt.expectError {
				assert.Error(t, err)
				assert.False(t, cfg.AI.HasStaticCredentials())
				return
			}
			require.NoError(t, err)
			assert.True(t, cfg.AI.HasStaticCredentials())
			assert.Equal(t, "AKIA123", cfg.AI.AccessKeyID)
			assert.Equal(t, tt.wantRegion, cfg.AI.Region)
			assert.Equal(t, tt.wantToken, cfg.AI.SessionToken)
		})
	}
}

func TestApplyTLSContent(t *testing.T) {
	t.Run("cert and key", func(t *testing.T) {
		cfg := &Config{}
		err := applyTLSContent(cfg, &VaultSecret{Data: map[string]any{"cert": "cert-pem", "key": "key-pem"}})
		require.NoError(t, err)
		assert.Equal(t, "cert-pem", cfg.Server.TLS.CertContent)
		assert.Equal(t, "key-pem", cfg.Server.TLS.KeyContent)
	})

	t.Run("missing key", func(t *testing.T) {
		cfg := &Config{}
		err := applyTLSContent(cfg, &VaultSecret{Data: map[string]any{"cert": "cert-pem"}})
		assert.ErrorContains(t, err, "key 'key' not found")
		assert.Empty(t, cfg.Server.TLS.CertContent, "nothing is applied on failure")
	})

	for _, field := range []string{"cert_file", "key_file"} {
		t.Run("rejects "+field, func(t *testing.T) {
			data := map[string]any{"cert": "cert-pem", "key": "key-pem", field: "/etc/tls/x.pem"}
			err := applyTLSContent(&Config{}, &VaultSecret{Data: data})
			assert.ErrorContains(t, err, fmt.Sprintf("'%s' is not supported", field))
		})
	}
}

func TestApplyAPIKeys(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, applyAPIKeys(cfg, &VaultSecret{Data: map[string]any{"keys": "key1, key2,,key3 "}}))
	assert.Equal(t, []string{"key1", "key2", "key3"}, cfg.Server.APIKeys)

	assert.Error(t, applyAPIKeys(cfg, &VaultSecret{Data: map[string]any{"keys": " , "}}))
	assert.Error(t, applyAPIKeys(cfg, &VaultSecret{Data: map[string]any{}}))
}

func TestApplySecrets(t *testing.T) {
	client, reader := newTestVaultClient(map[string]map[string]any{
		"secret/data/api":    {"keys": "k1,k2"},
		"secret/data/gemini": {"api_key": "gemini-key"},
		"secret/data/aws":    {"access_key_id": "AKIA", "secret_access_key": "s3cret"},
		"secret/data/tls":    {"cert": "cert-pem", "key": "key-pem"},
	})

	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
		APIKeys:        "secret/data/api",
		GeminiKey:      "secret/data/gemini",
		AWSCredentials: "secret/data/aws",
		TLSCerts:       "secret/data/tls",
	}}}

	require.NoError(t, applySecrets(client, cfg, client.logger))

	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "AKIA", cfg.AI.AccessKeyID)
	assert.Equal(t, "cert-pem", cfg.Server.TLS.CertContent)
	assert.Equal(t, []string{"secret/data/api", "secret/data/gemini", "secret/data/aws", "secret/data/tls"}, reader.reads)
}

func TestApplySecretsSkipsUnsetPathsAndStopsOnFailure(t *testing.T) {
	client, reader := newTestVaultClient(map[string]map[string]any{
		"secret/data/gemini": {"wrong": "field"},
	})

	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
		GeminiKey: "secret/data/gemini",
		TLSCerts:  "secret/data/missing",
	}}}

	err := applySecrets(client, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Gemini API key secret at secret/data/gemini")
	assert.Equal(t, []string{"secret/data/gemini"}, reader.reads)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestApplySecretsMissingSecret(t *testing.T) {
	client, _ := newTestVaultClient(nil)
	cfg := &Config{Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{TLSCerts: "secret/data/tls"}}}

	err := applySecrets(client, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load TLS certificate from vault")
	assert.Contains(t, err.Error(), "secret not found")
}

func TestReadKV2WithoutClient(t *testing.T) {
	var vc *VaultClient
	_, err := vc.ReadKV2("secret/data/x")
	assert.ErrorContains(t, err, "not initialized")
}

func TestVaultToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))
	emptyFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte("\n"), 0600))

	tests := []struct {
		name     string
		cfg      VaultConfig
		want     string
		errorMsg string
	}{
		{name: "inline token wins", cfg: VaultConfig{Token: "inline", TokenFile: tokenFile}, want: "inline"},
		{name: "token file", cfg: VaultConfig{TokenFile: tokenFile}, want: "file-token"},
		{name: "empty token file", cfg: VaultConfig{TokenFile: emptyFile}, errorMsg: "is empty"},
		{name: "missing token file", cfg: VaultConfig{TokenFile: filepath.Join(dir, "nope")}, errorMsg: "failed to read vault token file"},
		{name: "no token", cfg: VaultConfig{}, errorMsg: "vault token is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vaultToken(tt.cfg)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false, Secrets: VaultSecrets{GeminiKey: "secret/data/gemini"}}}
	assert.NoError(t, ApplyVaultSecrets(cfg, nil))
	assert.Empty(t, cfg.AI.APIKey)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "hvs.****", maskSecret("hvs.1234567890"))
}
