package common

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeparser/internal/errors"
	"resumeparser/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

func TestSaveAndRemoveUpload(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(testLogger())

	path, err := fp.SaveUpload(strings.NewReader("%PDF-1.4 body"), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	fp.RemoveUpload(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// removing twice is harmless
	fp.RemoveUpload(path)
}

func TestSaveUploadMissingDirectory(t *testing.T) {
	fp := NewFileProcessor(testLogger())

	_, err := fp.SaveUpload(strings.NewReader("x"), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "UPLOAD_SAVE_FAILED"))
}

func TestHandleOutputToWriter(t *testing.T) {
	var buf bytes.Buffer
	handler := NewOutputHandler(testLogger()).WithStdout(&buf)

	err := handler.HandleOutput(&types.ParsedResume{FullName: "John Doe"}, CommandConfig{OutputFormat: "text"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "=== JOHN DOE ===")
}

func TestHandleOutputToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "resume.json")
	handler := NewOutputHandler(testLogger())

	err := handler.HandleOutput(&types.ParsedResume{FullName: "John Doe"}, CommandConfig{OutputFile: target, OutputFormat: "json"})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"full_name": "John Doe"`)
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	handler := NewOutputHandler(testLogger()).WithStdout(io.Discard)

	err := handler.HandleOutput(&types.ParsedResume{FullName: "John Doe"}, CommandConfig{OutputFormat: "xml"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
	assert.NotContains(t, handler.GetSupportedFormats(), "xml")
}

func TestRunFileCommand(t *testing.T) {
	var buf bytes.Buffer
	handler := NewOutputHandler(testLogger()).WithStdout(&buf)

	var logged string
	err := runFileCommand(context.Background(), testLogger(), handler, CommandConfig{OutputFormat: "json"}, "resume.pdf",
		func(_ context.Context, path string) (*types.ParsedResume, error) {
			return &types.ParsedResume{FullName: "From " + path}, nil
		},
		func(path string, _ CommandConfig) { logged = path },
	)
	require.NoError(t, err)
	assert.Equal(t, "resume.pdf", logged)
	assert.Contains(t, buf.String(), "From resume.pdf")
}

func TestRunFileCommandPropagatesError(t *testing.T) {
	var buf bytes.Buffer
	handler := NewOutputHandler(testLogger()).WithStdout(&buf)
	failure := errors.NewValidationError(errors.ErrCodeInvalidInput, "Invalid PDF file", nil)

	err := runFileCommand(context.Background(), testLogger(), handler, CommandConfig{OutputFormat: "json"}, "resume.txt",
		func(context.Context, string) (*types.ParsedResume, error) { return nil, failure },
		nil,
	)
	assert.Same(t, failure, err)
	assert.Empty(t, buf.String())
}
