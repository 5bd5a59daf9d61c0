package types

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullResumeJSON = `{
  "full_name": "Jane Doe",
  "email": "jane@example.com",
  "phone": "+44 20 7946 0000",
  "location": "London, UK",
  "linkedin_url": "https://linkedin.com/in/janedoe",
  "github_url": null,
  "portfolio_url": null,
  "summary": "Backend engineer.",
  "work_experience": [
    {
      "job_title": "Senior Engineer",
      "company": "Acme",
      "location": "Remote",
      "start_date": "2020-01",
      "end_date": "Present",
      "duration": "4 years",
      "responsibilities": ["Built APIs", "Led migrations"]
    }
  ],
  "education": [
    {"degree": "BSc Computer Science", "institution": "UCL", "graduation_year": 2015, "gpa": 3.7}
  ],
  "skills": [
    {"name": "Go", "category": "technical", "proficiency": "expert"},
    {"name": "Teamwork", "category": null, "proficiency": null}
  ],
  "certifications": [{"name": "CKA", "issuing_organization": "CNCF"}],
  "projects": [{"title": "resume-parser", "description": "PDF to JSON", "technologies": ["Go"]}],
  "languages": ["English", "French"],
  "years_of_experience": 8,
  "current_job_title": "Senior Engineer"
}`

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestDecodeParsedResumeValid(t *testing.T) {
	resume, err := DecodeParsedResume([]byte(fullResumeJSON))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", resume.FullName)
	require.NotNil(t, resume.Email)
	assert.Equal(t, "jane@example.com", *resume.Email)
	assert.Nil(t, resume.GitHubURL)
	require.Len(t, resume.WorkExperience, 1)
	assert.Equal(t, []string{"Built APIs", "Led migrations"}, resume.WorkExperience[0].Responsibilities)
	require.Len(t, resume.Skills, 2)
	require.NotNil(t, resume.Skills[0].Category)
	assert.Equal(t, SkillCategoryTechnical, *resume.Skills[0].Category)
	assert.Nil(t, resume.Skills[1].Proficiency)
	require.NotNil(t, resume.YearsOfExperience)
	assert.Equal(t, 8, *resume.YearsOfExperience)
	assert.Equal(t, []string{"English", "French"}, resume.Languages)
}

func TestDecodeParsedResumeMinimalDefaults(t *testing.T) {
	resume, err := DecodeParsedResume([]byte(`{"full_name": "John Smith"}`))
	require.NoError(t, err)

	assert.Equal(t, "John Smith", resume.FullName)
	assert.Nil(t, resume.Email)
	assert.Nil(t, resume.YearsOfExperience)
	assert.NotNil(t, resume.WorkExperience)
	assert.Empty(t, resume.WorkExperience)
	assert.NotNil(t, resume.Languages)

	out, err := json.Marshal(resume)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"work_experience":[]`)
	assert.Contains(t, string(out), `"email":null`)
	assert.Contains(t, string(out), `"languages":[]`)
}

func TestDecodeParsedResumeSchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantField string
	}{
		{
			name:      "missing full name",
			payload:   `{"email": "a@b.com"}`,
			wantField: "full_name",
		},
		{
			name:      "blank full name",
			payload:   `{"full_name": "   "}`,
			wantField: "full_name",
		},
		{
			name:      "years of experience above bound",
			payload:   `{"full_name": "A", "years_of_experience": 51}`,
			wantField: "years_of_experience",
		},
		{
			name:      "negative years of experience",
			payload:   `{"full_name": "A", "years_of_experience": -1}`,
			wantField: "years_of_experience",
		},
		{
			name:      "graduation year below bound",
			payload:   `{"full_name": "A", "education": [{"degree": "BA", "institution": "X", "graduation_year": 1949}]}`,
			wantField: "graduation_year",
		},
		{
			name:      "gpa above bound",
			payload:   `{"full_name": "A", "education": [{"degree": "BA", "institution": "X", "gpa": 4.5}]}`,
			wantField: "gpa",
		},
		{
			name:      "unknown skill category",
			payload:   `{"full_name": "A", "skills": [{"name": "Go", "category": "hobby"}]}`,
			wantField: "category",
		},
		{
			name:      "unknown proficiency",
			payload:   `{"full_name": "A", "skills": [{"name": "Go", "proficiency": "guru"}]}`,
			wantField: "proficiency",
		},
		{
			name:      "invalid email",
			payload:   `{"full_name": "A", "email": "not-an-email"}`,
			wantField: "email",
		},
		{
			name:      "work entry missing company",
			payload:   `{"full_name": "A", "work_experience": [{"job_title": "Dev"}]}`,
			wantField: "company",
		},
		{
			name:      "project with blank description",
			payload:   `{"full_name": "A", "projects": [{"title": "T", "description": " "}]}`,
			wantField: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resume, err := DecodeParsedResume([]byte(tt.payload))
			require.Error(t, err)
			assert.Nil(t, resume)

			var verr *ValidationError
			require.True(t, stderrors.As(err, &verr), "expected *ValidationError, got %T", err)
			assert.Contains(t, verr.Error(), tt.wantField)
		})
	}
}

func TestDecodeParsedResumeIntegralFloats(t *testing.T) {
	resume, err := DecodeParsedResume([]byte(`{
		"full_name": "John Doe",
		"years_of_experience": 5.0,
		"education": [{"degree": "BA", "institution": "X", "graduation_year": 2020.0}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, intPtr(5), resume.YearsOfExperience)
	require.Len(t, resume.Education, 1)
	assert.Equal(t, intPtr(2020), resume.Education[0].GraduationYear)
}

func TestDecodeParsedResumeFractionalIntegers(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantField string
	}{
		{
			name:      "years of experience",
			payload:   `{"full_name": "John Doe", "years_of_experience": 5.5}`,
			wantField: "years_of_experience",
		},
		{
			name:      "graduation year",
			payload:   `{"full_name": "John Doe", "education": [{"degree": "BA", "institution": "X", "graduation_year": 2020.5}]}`,
			wantField: "graduation_year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParsedResume([]byte(tt.payload))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, stderrors.As(err, &verr), "expected *ValidationError, got %T", err)
			assert.Contains(t, verr.Error(), tt.wantField)
		})
	}
}

func TestIntegralValueRejectsFractions(t *testing.T) {
	n := json.Number("7.25")
	_, err := integralValue(&n, "years_of_experience")

	var verr *ValidationError
	require.True(t, stderrors.As(err, &verr))
	assert.Equal(t, "years_of_experience", verr.Errors[0].Field)

	got, err := integralValue(nil, "years_of_experience")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeParsedResumeMalformedJSON(t *testing.T) {
	_, err := DecodeParsedResume([]byte(`{"full_name": `))
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, stderrors.As(err, &verr))
}

func TestValidateBoundaryValues(t *testing.T) {
	resume := &ParsedResume{
		FullName:          "Edge Case",
		YearsOfExperience: intPtr(50),
		Education: []Education{
			{Degree: "PhD", Institution: "MIT", GraduationYear: intPtr(2030)},
			{Degree: "BSc", Institution: "MIT", GraduationYear: intPtr(1950)},
		},
	}
	assert.NoError(t, resume.Validate())

	resume.YearsOfExperience = intPtr(0)
	assert.NoError(t, resume.Validate())
}

func TestValidateReportsFieldPaths(t *testing.T) {
	resume := &ParsedResume{
		FullName: "",
		Email:    strPtr("nope"),
		WorkExperience: []WorkExperience{
			{JobTitle: "Dev", Company: ""},
		},
	}

	err := resume.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, stderrors.As(err, &verr))

	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "full_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "work_experience[0].company")
}

func TestCheckResponsibilityLimit(t *testing.T) {
	resume := &ParsedResume{
		FullName: "A",
		WorkExperience: []WorkExperience{
			{JobTitle: "Dev", Company: "X", Responsibilities: []string{"1", "2", "3"}},
			{JobTitle: "Dev", Company: "Y", Responsibilities: []string{"1", "2", "3", "4", "5", "6"}},
		},
	}

	assert.NoError(t, resume.CheckResponsibilityLimit(6))

	err := resume.CheckResponsibilityLimit(5)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "work_experience[1].responsibilities"))
	assert.False(t, strings.Contains(err.Error(), "work_experience[0]"))
}

func TestResponseSchemaMap(t *testing.T) {
	m, err := ResponseSchemaMap()
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])

	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"full_name", "work_experience", "education", "skills", "certifications", "projects", "languages", "years_of_experience"} {
		assert.Contains(t, props, key)
	}

	schema := ResponseSchema()
	schema[0] = 'x'
	assert.Equal(t, byte('{'), ResponseSchema()[0])
}

func TestEnumListsMatchConstants(t *testing.T) {
	assert.Equal(t, []string{"technical", "soft", "language", "tool", "framework", "other"}, SkillCategories())
	assert.Equal(t, []string{"beginner", "intermediate", "advanced", "expert"}, ProficiencyLevels())
}

func BenchmarkDecodeParsedResume(b *testing.B) {
	raw := []byte(fullResumeJSON)
	for b.Loop() {
		if _, err := DecodeParsedResume(raw); err != nil {
			b.Fatal(err)
		}
	}
}
