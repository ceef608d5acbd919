package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProject(t *testing.T) {
	valid := Project{
		Title:       "YouQuery",
		Description: "portfolio dashboard",
		TechStack:   []string{"Go"},
		GithubLink:  "https://github.com/youquery/backend",
	}
	assert.NoError(t, ValidateProject(valid))

	tests := []struct {
		name   string
		mutate func(*Project)
		field  string
	}{
		{"empty title", func(p *Project) { p.Title = "  " }, "title"},
		{"empty description", func(p *Project) { p.Description = "" }, "description"},
		{"empty tech stack", func(p *Project) { p.TechStack = nil }, "techStack"},
		{"bad github link", func(p *Project) { p.GithubLink = "not a url" }, "githubLink"},
		{"relative demo link", func(p *Project) { p.LiveDemoLink = "/demo" }, "liveDemoLink"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := ValidateProject(p)
			var fieldErrs FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Contains(t, fieldErrs, tt.field)
		})
	}
}

func TestValidateProjectEmptyTechStackOnly(t *testing.T) {
	err := ValidateProject(Project{Title: "t", Description: "d", TechStack: []string{}})
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, FieldErrors{"techStack": "at least one technology is required"}, fieldErrs)
}

func TestValidateSkill(t *testing.T) {
	assert.NoError(t, ValidateSkill(Skill{Name: "Go"}))

	err := ValidateSkill(Skill{Name: "   "})
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "name")
}

func TestValidateExperience(t *testing.T) {
	valid := Experience{
		CompanyName: "Acme",
		Role:        "Engineer",
		StartDate:   "2023-01",
		EndDate:     "2024-06",
		Description: "things",
	}
	assert.NoError(t, ValidateExperience(valid))

	t.Run("end before start", func(t *testing.T) {
		e := valid
		e.StartDate = "2024-07"
		err := ValidateExperience(e)
		var fieldErrs FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "endDate")
	})

	t.Run("missing end date for past position", func(t *testing.T) {
		e := valid
		e.EndDate = ""
		err := ValidateExperience(e)
		var fieldErrs FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "endDate")
	})

	t.Run("current position needs no end date", func(t *testing.T) {
		e := valid
		e.EndDate = ""
		e.IsCurrent = true
		assert.NoError(t, ValidateExperience(e))
	})

	t.Run("current position ignores date ordering", func(t *testing.T) {
		e := valid
		e.StartDate = "2024-07"
		e.IsCurrent = true
		assert.NoError(t, ValidateExperience(e))
	})

	t.Run("all required fields reported", func(t *testing.T) {
		err := ValidateExperience(Experience{})
		var fieldErrs FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		for _, f := range []string{"companyName", "role", "startDate", "endDate", "description"} {
			assert.Contains(t, fieldErrs, f)
		}
		assert.Equal(t, "invalid fields: companyName, description, endDate, role, startDate", err.Error())
	})
}
