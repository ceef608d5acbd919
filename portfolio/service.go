// Package portfolio is the CRUD façade over the per-user realtime
// database documents: projects, skills and experience keyed by generated
// id, plus the profile. Saves are full-record overwrites, last writer
// wins; the store offers no transactions across kinds and the service does
// not pretend otherwise.
package portfolio

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

type Service struct {
	db  Database
	now func() time.Time
}

func NewService(db Database) *Service {
	return &Service{db: db, now: time.Now}
}

func portfolioPath(uid string) string  { return "portfolios/" + uid }
func profilePath(uid string) string    { return "portfolios/" + uid + "/profile" }
func projectsPath(uid string) string   { return "portfolios/" + uid + "/projects" }
func skillsPath(uid string) string     { return "portfolios/" + uid + "/skills" }
func experiencePath(uid string) string { return "portfolios/" + uid + "/experience" }

// Portfolio fetches the user's whole document. A user with no data yet
// gets empty collections, not an error. Collections that the store hands
// back as arrays (small integer keys) are normalized into maps here, at
// the boundary; nothing downstream branches on payload shape.
func (s *Service) Portfolio(ctx context.Context, uid string) (*Portfolio, error) {
	var raw struct {
		Profile    *Profile        `json:"profile"`
		Projects   json.RawMessage `json:"projects"`
		Skills     json.RawMessage `json:"skills"`
		Experience json.RawMessage `json:"experience"`
	}
	if err := s.db.Get(ctx, portfolioPath(uid), &raw); err != nil {
		return nil, err
	}

	projects, err := decodeCollection[Project](raw.Projects)
	if err != nil {
		return nil, err
	}
	skills, err := decodeCollection[Skill](raw.Skills)
	if err != nil {
		return nil, err
	}
	experience, err := decodeCollection[Experience](raw.Experience)
	if err != nil {
		return nil, err
	}

	for id, p := range projects {
		p.ID = id
		projects[id] = p
	}
	for id, sk := range skills {
		sk.ID = id
		skills[id] = sk
	}
	for id, e := range experience {
		e.ID = id
		experience[id] = e
	}

	return &Portfolio{
		Profile:    raw.Profile,
		Projects:   projects,
		Skills:     skills,
		Experience: experience,
	}, nil
}

// SaveProject upserts keyed by id presence: a new id is generated by the
// store on insert, an existing id is overwritten in full. updatedAt is
// stamped here on every save, replacing any client-supplied value.
func (s *Service) SaveProject(ctx context.Context, uid string, p Project) (string, error) {
	id := p.ID
	p.ID = ""
	p.UpdatedAt = s.timestamp()
	if id != "" {
		return id, s.db.Set(ctx, projectsPath(uid)+"/"+id, p)
	}
	return s.db.Push(ctx, projectsPath(uid), p)
}

func (s *Service) SaveSkill(ctx context.Context, uid string, sk Skill) (string, error) {
	if !skillCategories[sk.Category] {
		sk.Category = CategoryOther
	}
	if !proficiencyLevels[sk.Proficiency] {
		sk.Proficiency = ProficiencyBeginner
	}
	id := sk.ID
	sk.ID = ""
	sk.UpdatedAt = s.timestamp()
	if id != "" {
		return id, s.db.Set(ctx, skillsPath(uid)+"/"+id, sk)
	}
	return s.db.Push(ctx, skillsPath(uid), sk)
}

// SaveExperience rewrites the end date to the "Present" sentinel for a
// current position, whatever the client supplied.
func (s *Service) SaveExperience(ctx context.Context, uid string, e Experience) (string, error) {
	if e.IsCurrent {
		e.EndDate = EndDatePresent
	}
	id := e.ID
	e.ID = ""
	e.UpdatedAt = s.timestamp()
	if id != "" {
		return id, s.db.Set(ctx, experiencePath(uid)+"/"+id, e)
	}
	return s.db.Push(ctx, experiencePath(uid), e)
}

// Deletes are idempotent: removing an id that is not there is not an
// error, by the store's own semantics.

func (s *Service) DeleteProject(ctx context.Context, uid, id string) error {
	return s.db.Delete(ctx, projectsPath(uid)+"/"+id)
}

func (s *Service) DeleteSkill(ctx context.Context, uid, id string) error {
	return s.db.Delete(ctx, skillsPath(uid)+"/"+id)
}

func (s *Service) DeleteExperience(ctx context.Context, uid, id string) error {
	return s.db.Delete(ctx, experiencePath(uid)+"/"+id)
}

func (s *Service) Profile(ctx context.Context, uid string) (*Profile, error) {
	var p *Profile
	if err := s.db.Get(ctx, profilePath(uid), &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) SaveProfile(ctx context.Context, uid string, p Profile) error {
	p.UpdatedAt = s.timestamp()
	return s.db.Set(ctx, profilePath(uid), p)
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// decodeCollection accepts the two shapes the store produces for a keyed
// collection: a JSON object, or an array when the keys happen to be small
// integers. Sparse array slots come back as nulls and are skipped.
func decodeCollection[T any](raw json.RawMessage) (map[string]T, error) {
	out := map[string]T{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if raw[0] == '[' {
		var list []*T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		for i, item := range list {
			if item == nil {
				continue
			}
			out[strconv.Itoa(i)] = *item
		}
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
