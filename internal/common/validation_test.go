package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		defaultFormat string
		supported     []string
		want          string
		expectedError string
	}{
		{name: "json", format: "json", defaultFormat: "json", supported: supported, want: "json"},
		{name: "markdown", format: "markdown", defaultFormat: "json", supported: supported, want: "markdown"},
		{name: "uppercase is normalized", format: "TEXT", defaultFormat: "json", supported: supported, want: "text"},
		{name: "surrounding space is trimmed", format: " json ", defaultFormat: "text", supported: supported, want: "json"},
		{name: "empty selects default", format: "", defaultFormat: "markdown", supported: supported, want: "markdown"},
		{
			name:          "unsupported xml",
			format:        "xml",
			defaultFormat: "json",
			supported:     supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:          "unsupported default",
			format:        "",
			defaultFormat: "yaml",
			supported:     []string{"json"},
			expectedError: "unsupported output format 'yaml'. Supported formats: [json]",
		},
		{name: "no restrictions configured", format: "csv", defaultFormat: "json", supported: nil, want: "csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOutputFormat(tt.format, tt.defaultFormat, tt.supported)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, err.Error())
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
