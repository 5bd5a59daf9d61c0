package config

// HasStaticCredentials reports whether static AWS credentials were configured
func (a AIConfig) HasStaticCredentials() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != ""
}

// SystemPrompt returns the configured system prompt override, preferring file content.
// An empty result means the built-in directive applies.
func (a AIConfig) SystemPrompt() string {
	return firstNonEmpty(a.LoadedPrompts.System, a.CustomPrompts.System)
}

// UserPromptTemplate returns the configured user prompt template override, preferring file content.
// An empty result means the built-in template applies.
func (a AIConfig) UserPromptTemplate() string {
	return firstNonEmpty(a.LoadedPrompts.User, a.CustomPrompts.User)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
