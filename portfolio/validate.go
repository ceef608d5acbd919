package portfolio

import (
	"net/url"
	"sort"
	"strings"
)

// FieldErrors maps field name to a human-readable message. Validation runs
// in the caller before save; a record that fails never reaches the store.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

func ValidateProject(p Project) error {
	errs := FieldErrors{}
	if strings.TrimSpace(p.Title) == "" {
		errs["title"] = "title is required"
	}
	if strings.TrimSpace(p.Description) == "" {
		errs["description"] = "description is required"
	}
	if len(p.TechStack) == 0 {
		errs["techStack"] = "at least one technology is required"
	}
	if p.GithubLink != "" && !wellFormedURL(p.GithubLink) {
		errs["githubLink"] = "please enter a valid GitHub URL"
	}
	if p.LiveDemoLink != "" && !wellFormedURL(p.LiveDemoLink) {
		errs["liveDemoLink"] = "please enter a valid URL"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func ValidateSkill(sk Skill) error {
	errs := FieldErrors{}
	if strings.TrimSpace(sk.Name) == "" {
		errs["name"] = "skill name is required"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateExperience checks the date invariant: an ended position needs an
// end date no earlier than its start (month-granularity strings compare
// lexicographically). A current position skips both checks; save rewrites
// its end date to the sentinel.
func ValidateExperience(e Experience) error {
	errs := FieldErrors{}
	if strings.TrimSpace(e.CompanyName) == "" {
		errs["companyName"] = "company name is required"
	}
	if strings.TrimSpace(e.Role) == "" {
		errs["role"] = "role is required"
	}
	if e.StartDate == "" {
		errs["startDate"] = "start date is required"
	}
	if !e.IsCurrent && e.EndDate == "" {
		errs["endDate"] = "end date is required for past positions"
	}
	if !e.IsCurrent && e.StartDate != "" && e.EndDate != "" && e.StartDate > e.EndDate {
		errs["endDate"] = "end date must be after start date"
	}
	if strings.TrimSpace(e.Description) == "" {
		errs["description"] = "description is required"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func wellFormedURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
