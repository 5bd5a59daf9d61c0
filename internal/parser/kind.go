package parser

import (
	"resumeparser/internal/errors"
)

// Kind identifies why a parse failed
type Kind string

const (
	KindInvalidInput           Kind = errors.ErrCodeInvalidInput
	KindExtractionFailed       Kind = errors.ErrCodeExtractionFailed
	KindEmptyOrTooShort        Kind = errors.ErrCodeEmptyOrTooShort
	KindSchemaValidationFailed Kind = errors.ErrCodeSchemaValidationFailed
	KindModelInvocationFailed  Kind = errors.ErrCodeModelInvocationFailed
)

// Public messages for failures whose message carries no detail
const (
	msgInvalidInput    = "Invalid PDF file"
	msgEmptyOrTooShort = "Resume text is empty or too short"
)

func (k Kind) String() string {
	return string(k)
}

// KindOf maps an error returned by Parse to its failure kind.
// A nil error has no kind; errors from outside the pipeline count as model invocation failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, kind := range []Kind{
		KindInvalidInput,
		KindExtractionFailed,
		KindEmptyOrTooShort,
		KindSchemaValidationFailed,
		KindModelInvocationFailed,
	} {
		if errors.CodeOf(err) == string(kind) {
			return kind
		}
	}
	return KindModelInvocationFailed
}

// MessageOf returns the public message of an error returned by Parse. It never
// includes wrapped causes, so it is safe to show to callers.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := errors.AsAppError(err); ok && Kind(appErr.Code) == KindOf(err) {
		return appErr.Message
	}
	return "Parsing failed: " + err.Error()
}
