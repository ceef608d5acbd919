package portfolio

// Record kinds stored under portfolios/{uid}. The id is the map key in the
// document store, never part of the stored value; List repopulates it.

type Profile struct {
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	DOB       string `json:"dob,omitempty"`
	College   string `json:"college,omitempty"`
	City      string `json:"city,omitempty"`
	Email     string `json:"email,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type Project struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	TechStack    []string `json:"techStack"`
	GithubLink   string   `json:"githubLink,omitempty"`
	LiveDemoLink string   `json:"liveDemoLink,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Stars        int      `json:"stars,omitempty"`
	Language     string   `json:"language,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

type Skill struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency string `json:"proficiency"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

const (
	CategoryFrontend = "Frontend"
	CategoryBackend  = "Backend"
	CategoryDatabase = "Database"
	CategoryDevOps   = "DevOps"
	CategoryDesign   = "Design"
	CategoryMobile   = "Mobile"
	CategoryCloud    = "Cloud"
	CategoryOther    = "Other"
)

const (
	ProficiencyBeginner     = "Beginner"
	ProficiencyIntermediate = "Intermediate"
	ProficiencyAdvanced     = "Advanced"
	ProficiencyExpert       = "Expert"
)

var skillCategories = map[string]bool{
	CategoryFrontend: true,
	CategoryBackend:  true,
	CategoryDatabase: true,
	CategoryDevOps:   true,
	CategoryDesign:   true,
	CategoryMobile:   true,
	CategoryCloud:    true,
	CategoryOther:    true,
}

var proficiencyLevels = map[string]bool{
	ProficiencyBeginner:     true,
	ProficiencyIntermediate: true,
	ProficiencyAdvanced:     true,
	ProficiencyExpert:       true,
}

// EndDatePresent is the sentinel stored in place of an end date for an
// ongoing position.
const EndDatePresent = "Present"

type Experience struct {
	ID          string `json:"id,omitempty"`
	CompanyName string `json:"companyName"`
	Role        string `json:"role"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	IsCurrent   bool   `json:"isCurrent"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Portfolio is one user's full document: the three collections keyed by
// generated id, plus the profile.
type Portfolio struct {
	Profile    *Profile              `json:"profile,omitempty"`
	Projects   map[string]Project    `json:"projects"`
	Skills     map[string]Skill      `json:"skills"`
	Experience map[string]Experience `json:"experience"`
}
