package config

// LoadedPrompts holds the content of prompts read from files at startup
type LoadedPrompts struct {
	System     string
	SystemFrom string // File the system prompt was read from
	User       string
	UserFrom   string // File the user prompt template was read from
}

// Count returns how many prompts were loaded from files
func (p LoadedPrompts) Count() int {
	n := 0
	if p.System != "" {
		n++
	}
	if p.User != "" {
		n++
	}
	return n
}
