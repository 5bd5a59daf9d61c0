package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumeparser/internal/errors"
	"resumeparser/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// SaveUpload copies an uploaded PDF into dir under a fresh uuid name and
// returns its path. The caller owns the file and must call RemoveUpload.
func (fp *FileProcessor) SaveUpload(src io.Reader, dir string) (string, error) {
	path := utils.TempUploadPath(dir)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", errors.NewIOError("UPLOAD_SAVE_FAILED", "Cannot create temporary upload file", err)
	}

	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		fp.RemoveUpload(path)
		return "", errors.NewIOError("UPLOAD_SAVE_FAILED", "Cannot write temporary upload file", copyErr)
	}

	if fp.logger != nil {
		fp.logger.Debug("Saved upload", "path", path, "size", utils.FormatFileSize(written))
	}
	return path, nil
}

// RemoveUpload deletes a temporary upload. A file that is already gone is not an error.
func (fp *FileProcessor) RemoveUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) && fp.logger != nil {
		// Log the error but don't override the main operation result
		fp.logger.Warn("Failed to remove temporary upload", "path", path, "error", err)
	}
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
