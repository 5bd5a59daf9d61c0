package common

import (
	"context"
	"time"

	"resumeparser/internal/errors"
)

// FileOperationFunc runs one operation against a file on disk.
type FileOperationFunc[Output any] func(context.Context, string) (Output, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(path string, cfg CommandConfig)

// RunFileCommand encapsulates the common logic for file-based CLI commands:
// run the operation, then format and write its result.
func RunFileCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	path string,
	operation FileOperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	return runFileCommand(ctx, logger, NewOutputHandler(logger), cmdConfig, path, operation, logDetails)
}

func runFileCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	outputHandler *OutputHandler,
	cmdConfig CommandConfig,
	path string,
	operation FileOperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	if logDetails != nil {
		logDetails(path, cmdConfig)
	}

	start := time.Now()
	result, err := operation(ctx, path)
	if err != nil {
		return err
	}

	if logger != nil {
		logger.Debug("Operation completed", "path", path, "duration", time.Since(start))
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
