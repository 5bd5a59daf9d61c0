package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// SkillCategory classifies a skill
type SkillCategory string

const (
	SkillCategoryTechnical SkillCategory = "technical"
	SkillCategorySoft      SkillCategory = "soft"
	SkillCategoryLanguage  SkillCategory = "language"
	SkillCategoryTool      SkillCategory = "tool"
	SkillCategoryFramework SkillCategory = "framework"
	SkillCategoryOther     SkillCategory = "other"
)

// Proficiency is the self-reported level for a skill
type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
	ProficiencyExpert       Proficiency = "expert"
)

// SkillCategories lists every accepted skill category in schema order.
func SkillCategories() []string {
	return []string{
		string(SkillCategoryTechnical),
		string(SkillCategorySoft),
		string(SkillCategoryLanguage),
		string(SkillCategoryTool),
		string(SkillCategoryFramework),
		string(SkillCategoryOther),
	}
}

// ProficiencyLevels lists every accepted proficiency in schema order.
func ProficiencyLevels() []string {
	return []string{
		string(ProficiencyBeginner),
		string(ProficiencyIntermediate),
		string(ProficiencyAdvanced),
		string(ProficiencyExpert),
	}
}

// Numeric bounds shared by the JSON Schema, the struct tags and the model schemas.
const (
	MinGraduationYear    = 1950
	MaxGraduationYear    = 2030
	MinGPA               = 0.0
	MaxGPA               = 4.0
	MinYearsOfExperience = 0
	MaxYearsOfExperience = 50
)

// Education represents a single education entry
type Education struct {
	Degree         string   `json:"degree" validate:"notblank"`
	Institution    string   `json:"institution" validate:"notblank"`
	FieldOfStudy   *string  `json:"field_of_study"`
	GraduationYear *int     `json:"graduation_year" validate:"omitempty,gte=1950,lte=2030"`
	GPA            *float64 `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	Location       *string  `json:"location"`
}

// WorkExperience represents one role held by the candidate
type WorkExperience struct {
	JobTitle         string   `json:"job_title" validate:"notblank"`
	Company          string   `json:"company" validate:"notblank"`
	Location         *string  `json:"location"`
	StartDate        *string  `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	Duration         *string  `json:"duration"`
	Responsibilities []string `json:"responsibilities"`
}

// Skill represents a named skill with optional classification
type Skill struct {
	Name        string         `json:"name" validate:"notblank"`
	Category    *SkillCategory `json:"category" validate:"omitempty,oneof=technical soft language tool framework other"`
	Proficiency *Proficiency   `json:"proficiency" validate:"omitempty,oneof=beginner intermediate advanced expert"`
}

// Certification represents a professional certification
type Certification struct {
	Name                string  `json:"name" validate:"notblank"`
	IssuingOrganization *string `json:"issuing_organization"`
	IssueDate           *string `json:"issue_date"`
	ExpiryDate          *string `json:"expiry_date"`
	CredentialID        *string `json:"credential_id"`
}

// Project represents a personal or professional project
type Project struct {
	Title        string   `json:"title" validate:"notblank"`
	Description  string   `json:"description" validate:"notblank"`
	Technologies []string `json:"technologies"`
	URL          *string  `json:"url"`
	Date         *string  `json:"date"`
}

// ParsedResume is the structured record extracted from a resume.
// Optional values are nil when absent; lists are never nil once decoded.
type ParsedResume struct {
	FullName string  `json:"full_name" validate:"notblank"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`

	LinkedInURL  *string `json:"linkedin_url"`
	GitHubURL    *string `json:"github_url"`
	PortfolioURL *string `json:"portfolio_url"`

	Summary *string `json:"summary"`

	WorkExperience []WorkExperience `json:"work_experience" validate:"dive"`
	Education      []Education      `json:"education" validate:"dive"`
	Skills         []Skill          `json:"skills" validate:"dive"`
	Certifications []Certification  `json:"certifications" validate:"dive"`
	Projects       []Project        `json:"projects" validate:"dive"`
	Languages      []string         `json:"languages"`

	YearsOfExperience *int    `json:"years_of_experience" validate:"omitempty,gte=0,lte=50"`
	CurrentJobTitle   *string `json:"current_job_title"`
}

// normalize replaces nil lists with empty ones so the record serialises with [] rather than null.
func (r *ParsedResume) normalize() {
	if r.WorkExperience == nil {
		r.WorkExperience = []WorkExperience{}
	}
	for i := range r.WorkExperience {
		if r.WorkExperience[i].Responsibilities == nil {
			r.WorkExperience[i].Responsibilities = []string{}
		}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	if r.Certifications == nil {
		r.Certifications = []Certification{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Projects {
		if r.Projects[i].Technologies == nil {
			r.Projects[i].Technologies = []string{}
		}
	}
	if r.Languages == nil {
		r.Languages = []string{}
	}
}

// UnmarshalJSON accepts integral numbers such as 2020.0 for the graduation year.
func (e *Education) UnmarshalJSON(data []byte) error {
	type plain Education
	aux := struct {
		*plain
		GraduationYear *json.Number `json:"graduation_year"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	year, err := integralValue(aux.GraduationYear, "graduation_year")
	if err != nil {
		return err
	}
	e.GraduationYear = year
	return nil
}

// UnmarshalJSON accepts integral numbers such as 5.0 for the years of experience.
func (r *ParsedResume) UnmarshalJSON(data []byte) error {
	type plain ParsedResume
	aux := struct {
		*plain
		YearsOfExperience *json.Number `json:"years_of_experience"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	years, err := integralValue(aux.YearsOfExperience, "years_of_experience")
	if err != nil {
		return err
	}
	r.YearsOfExperience = years
	return nil
}

// integralValue converts a JSON number without a fractional part to an int.
// Fractional values are reported as a *ValidationError on field.
func integralValue(n *json.Number, field string) (*int, error) {
	if n == nil {
		return nil, nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
		v := int(i)
		return &v, nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil, &ValidationError{Errors: []FieldError{{Field: field, Message: "must be an integer"}}}
	}
	v := int(f)
	return &v, nil
}
