package common

import (
	"fmt"
	"slices"
	"strings"
)

// NormalizeOutputFormat lowercases format and checks it against the
// configured supported formats. An empty format selects defaultFormat.
func NormalizeOutputFormat(format, defaultFormat string, supportedFormats []string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = defaultFormat
	}

	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return format, nil
	}

	return "", fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}
