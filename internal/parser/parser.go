// Package parser runs the resume parsing pipeline: path check, text extraction,
// length gate, prompt building and structured extraction.
package parser

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"resumeparser/internal/ai"
	"resumeparser/internal/config"
	"resumeparser/internal/errors"
	"resumeparser/internal/types"
	"resumeparser/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// TextExtractor reads the text layer of a document on disk
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Observer receives measurements from each parse
type Observer interface {
	ObserveExtraction(ctx context.Context, provider string, duration time.Duration, usage *ai.TokenUsage, err error)
	ObserveParse(ctx context.Context, outcome string, textLength int, duration time.Duration)
}

// Options tunes the pipeline gates
type Options struct {
	MinTextLength              int
	EnforceResponsibilityLimit bool
	MaxResponsibilities        int
}

// DefaultOptions returns the gates used when nothing is configured
func DefaultOptions() Options {
	return Options{
		MinTextLength:       20,
		MaxResponsibilities: 5,
	}
}

// OptionsFromConfig builds pipeline options from the app configuration
func OptionsFromConfig(app config.AppConfig) Options {
	return Options{
		MinTextLength:              app.MinTextLength,
		EnforceResponsibilityLimit: app.EnforceResponsibilityLimit,
		MaxResponsibilities:        app.MaxResponsibilities,
	}
}

// Parser turns a PDF resume into a validated ParsedResume.
// It holds no per-call state and is safe for concurrent use.
type Parser struct {
	text      TextExtractor
	extractor ai.Extractor
	prompts   *ai.PromptBuilder
	opts      Options
	observer  Observer
	logger    *errors.Logger
}

// New creates a parser. A nil prompt builder uses the built-in prompts.
func New(text TextExtractor, extractor ai.Extractor, prompts *ai.PromptBuilder, opts Options, logger *errors.Logger) *Parser {
	if prompts == nil {
		prompts = ai.NewPromptBuilder("", "")
	}
	return &Parser{
		text:      text,
		extractor: extractor,
		prompts:   prompts,
		opts:      opts,
		logger:    logger,
	}
}

// WithObserver returns a copy of the parser reporting to o
func (p *Parser) WithObserver(o Observer) *Parser {
	clone := *p
	clone.observer = o
	return &clone
}

// Parse runs the pipeline on the PDF at path. It returns either a resume or an
// *errors.AppError whose code is one of the Kind values, never both.
func (p *Parser) Parse(ctx context.Context, path string) (*types.ParsedResume, error) {
	tracer := otel.Tracer("resumeparser.parser")
	ctx, span := tracer.Start(ctx, "parser.parse")
	defer span.End()

	start := time.Now()
	textLength := 0

	resume, err := p.run(ctx, path, &textLength)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		span.RecordError(err)
		p.logger.Debug("Resume parse failed",
			"path", path,
			"kind", outcome,
			"error", err.Error())
	}
	span.SetAttributes(
		attribute.String("parse.outcome", outcome),
		attribute.Int("parse.text_length", textLength),
	)
	if p.observer != nil {
		p.observer.ObserveParse(ctx, outcome, textLength, time.Since(start))
	}

	if err != nil {
		return nil, err
	}
	return resume, nil
}

func (p *Parser) run(ctx context.Context, path string, textLength *int) (*types.ParsedResume, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	p.logger.Debug("Resume path accepted", "path", path)

	text, err := p.text.ExtractText(ctx, path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExtractionFailed,
			"PDF extraction failed: "+err.Error(), err)
	}

	trimmed := strings.TrimSpace(text)
	*textLength = utf8.RuneCountInString(trimmed)
	p.logger.Debug("Extracted resume text", "path", path, "characters", *textLength)

	if *textLength < p.opts.MinTextLength {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyOrTooShort, msgEmptyOrTooShort, nil).
			WithContext("characters", *textLength).
			WithContext("minimum", p.opts.MinTextLength)
	}

	prompt := p.prompts.Build(trimmed)
	p.logger.Debug("Built parse prompt", "prompt_length", len(prompt.User))

	return p.extract(ctx, prompt)
}

// validatePath accepts existing regular paths with a .pdf extension in any case.
// The extension is checked first so a wrong extension never touches the filesystem.
func validatePath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return errors.NewValidationError(errors.ErrCodeInvalidInput, msgInvalidInput,
			fmt.Errorf("unsupported extension %q", filepath.Ext(path)))
	}

	if err := utils.ValidateInputFile(path); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidInput, msgInvalidInput, err)
	}
	return nil
}

func (p *Parser) extract(ctx context.Context, prompt ai.Prompt) (*types.ParsedResume, error) {
	start := time.Now()
	resume, usage, err := p.extractor.Extract(ctx, prompt)
	if p.observer != nil {
		p.observer.ObserveExtraction(ctx, providerName(p.extractor), time.Since(start), usage, err)
	}
	if usage != nil {
		p.logger.Debug("Model token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}

	if err != nil {
		return nil, classifyExtractionError(err)
	}
	if resume == nil {
		return nil, errors.NewAIError(errors.ErrCodeModelInvocationFailed,
			"Parsing failed: model returned no result", nil)
	}

	if err := resume.Validate(); err != nil {
		return nil, schemaError(err)
	}

	if p.opts.EnforceResponsibilityLimit {
		if err := resume.CheckResponsibilityLimit(p.opts.MaxResponsibilities); err != nil {
			return nil, schemaError(err)
		}
	}

	return resume, nil
}

// classifyExtractionError keeps already tagged failures and tags the rest
func classifyExtractionError(err error) error {
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Code {
		case errors.ErrCodeSchemaValidationFailed, errors.ErrCodeModelInvocationFailed:
			return appErr
		}
	}

	var verr *types.ValidationError
	if stderrors.As(err, &verr) {
		return schemaError(verr)
	}

	return errors.NewAIError(errors.ErrCodeModelInvocationFailed, "Parsing failed: "+err.Error(), err)
}

func schemaError(err error) error {
	return errors.NewValidationError(errors.ErrCodeSchemaValidationFailed,
		"Schema validation failed: "+err.Error(), err)
}

func providerName(extractor ai.Extractor) string {
	if named, ok := extractor.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "custom"
}
