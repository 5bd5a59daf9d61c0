package ai

import (
	"strings"
)

// PromptPlaceholder marks where the resume text goes in a user template.
// Everything else in the template, including other % signs, is literal.
const PromptPlaceholder = "%s"

// DefaultSystemPrompt is the directive sent alongside every parse request
const DefaultSystemPrompt = "Extract structured resume data using tool calls."

// DefaultUserPromptTemplate holds the extraction rules; %s receives the resume text
const DefaultUserPromptTemplate = `You are a resume parsing assistant.

Rules:
- Be concise and factual
- Do not infer missing information
- Limit responsibilities to 3–5 bullets per role
- Normalize skills and titles where possible
- Do not add commentary

Resume:
%s`

// PromptBuilder renders the parse prompt for a resume text
type PromptBuilder struct {
	system       string
	userTemplate string
}

// NewPromptBuilder creates a builder from optional overrides.
// Empty values fall back to the built-in prompts.
func NewPromptBuilder(system, userTemplate string) *PromptBuilder {
	return &PromptBuilder{
		system:       resolvePrompt(system, DefaultSystemPrompt),
		userTemplate: resolvePrompt(userTemplate, DefaultUserPromptTemplate),
	}
}

// Build embeds the resume text verbatim at the template's placeholder.
// The result is deterministic and trimmed of surrounding whitespace.
func (b *PromptBuilder) Build(resumeText string) Prompt {
	return Prompt{
		System: b.system,
		User:   strings.TrimSpace(strings.Replace(b.userTemplate, PromptPlaceholder, resumeText, 1)),
	}
}

// BuildParsePrompt builds the default parse prompt for a resume text
func BuildParsePrompt(resumeText string) Prompt {
	return NewPromptBuilder("", "").Build(resumeText)
}

// resolvePrompt returns the configured prompt when set, the default otherwise
func resolvePrompt(configured, fromDefault string) string {
	if configured != "" {
		return configured
	}
	return fromDefault
}
