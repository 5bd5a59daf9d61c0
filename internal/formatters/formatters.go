package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"resumeparser/internal/types"
)

// notAvailable is shown wherever an optional value is absent
const notAvailable = "N/A"

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ParsedResume", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "ParsedResume", &ResumeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ParsedResume, *types.ParsedResume:
		return "ParsedResume"
	default:
		return "any"
	}
}

// asResume accepts both the value and the pointer form
func asResume(data any) (*types.ParsedResume, error) {
	switch r := data.(type) {
	case *types.ParsedResume:
		if r == nil {
			return nil, fmt.Errorf("expected ParsedResume, got nil")
		}
		return r, nil
	case types.ParsedResume:
		return &r, nil
	default:
		return nil, fmt.Errorf("expected ParsedResume, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ResumeTextFormatter renders a parsed resume as plain text for review
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	resume, err := asResume(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("=== %s ===\n\n", strings.ToUpper(resume.FullName)))
	output.WriteString(fmt.Sprintf("Experience (yrs): %s\n", intOrNA(resume.YearsOfExperience)))
	output.WriteString(fmt.Sprintf("Current Role:     %s\n", orNA(resume.CurrentJobTitle)))
	output.WriteString(fmt.Sprintf("Location:         %s\n", orNA(resume.Location)))
	output.WriteString(fmt.Sprintf("Email:            %s\n", orNA(resume.Email)))
	output.WriteString("\n")

	if resume.Summary != nil && *resume.Summary != "" {
		output.WriteString("=== PROFESSIONAL SUMMARY ===\n")
		output.WriteString(*resume.Summary)
		output.WriteString("\n\n")
	}

	output.WriteString("=== WORK EXPERIENCE ===\n")
	for _, exp := range resume.WorkExperience {
		output.WriteString(fmt.Sprintf("%s @ %s\n", exp.JobTitle, exp.Company))
		output.WriteString(fmt.Sprintf("  Location: %s\n", orNA(exp.Location)))
		output.WriteString(fmt.Sprintf("  Dates:    %s -> %s\n", orNA(exp.StartDate), orNA(exp.EndDate)))
		for _, r := range exp.Responsibilities {
			output.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}
	output.WriteString("\n")

	output.WriteString("=== SKILLS ===\n")
	output.WriteString(skillNames(resume.Skills))
	output.WriteString("\n\n")

	output.WriteString("=== EDUCATION ===\n")
	for _, edu := range resume.Education {
		output.WriteString(fmt.Sprintf("%s - %s (%s)\n", edu.Degree, edu.Institution, intOrNA(edu.GraduationYear)))
	}

	if len(resume.Certifications) > 0 {
		output.WriteString("\n=== CERTIFICATIONS ===\n")
		for _, cert := range resume.Certifications {
			output.WriteString(fmt.Sprintf("- %s\n", cert.Name))
		}
	}

	if len(resume.Projects) > 0 {
		output.WriteString("\n=== PROJECTS ===\n")
		for _, project := range resume.Projects {
			output.WriteString(fmt.Sprintf("%s: %s\n", project.Title, project.Description))
			if len(project.Technologies) > 0 {
				output.WriteString(fmt.Sprintf("  Technologies: %s\n", strings.Join(project.Technologies, ", ")))
			}
		}
	}

	if len(resume.Languages) > 0 {
		output.WriteString("\n=== LANGUAGES ===\n")
		output.WriteString(strings.Join(resume.Languages, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "ParsedResume"
}

// ResumeMarkdownFormatter renders a parsed resume as markdown for review
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	resume, err := asResume(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n", resume.FullName))
	output.WriteString("| Experience (yrs) | Current Role | Location | Email |\n")
	output.WriteString("|---|---|---|---|\n")
	output.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n\n",
		intOrNA(resume.YearsOfExperience),
		orNA(resume.CurrentJobTitle),
		orNA(resume.Location),
		orNA(resume.Email)))

	if resume.Summary != nil && *resume.Summary != "" {
		output.WriteString("## Professional Summary\n\n")
		output.WriteString(*resume.Summary)
		output.WriteString("\n\n")
	}

	output.WriteString("## Work Experience\n\n")
	for _, exp := range resume.WorkExperience {
		output.WriteString(fmt.Sprintf("### %s @ %s\n\n", exp.JobTitle, exp.Company))
		output.WriteString(fmt.Sprintf("**Location:** %s  \n", orNA(exp.Location)))
		output.WriteString(fmt.Sprintf("**Dates:** %s → %s\n\n", orNA(exp.StartDate), orNA(exp.EndDate)))
		for _, r := range exp.Responsibilities {
			output.WriteString(fmt.Sprintf("- %s\n", r))
		}
		if len(exp.Responsibilities) > 0 {
			output.WriteString("\n")
		}
	}

	output.WriteString("## Skills\n\n")
	output.WriteString(skillNames(resume.Skills))
	output.WriteString("\n\n")

	output.WriteString("## Education\n\n")
	for _, edu := range resume.Education {
		output.WriteString(fmt.Sprintf("- %s - %s (%s)\n", edu.Degree, edu.Institution, intOrNA(edu.GraduationYear)))
	}

	if len(resume.Certifications) > 0 {
		output.WriteString("\n## Certifications\n\n")
		for _, cert := range resume.Certifications {
			if cert.IssuingOrganization != nil {
				output.WriteString(fmt.Sprintf("- %s (%s)\n", cert.Name, *cert.IssuingOrganization))
				continue
			}
			output.WriteString(fmt.Sprintf("- %s\n", cert.Name))
		}
	}

	if len(resume.Projects) > 0 {
		output.WriteString("\n## Projects\n\n")
		for _, project := range resume.Projects {
			output.WriteString(fmt.Sprintf("- **%s**: %s\n", project.Title, project.Description))
		}
	}

	if len(resume.Languages) > 0 {
		output.WriteString("\n## Languages\n\n")
		output.WriteString(strings.Join(resume.Languages, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "ParsedResume"
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

func intOrNA(i *int) string {
	if i == nil {
		return notAvailable
	}
	return strconv.Itoa(*i)
}

func skillNames(skills []types.Skill) string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
