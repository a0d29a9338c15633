package scheduler

import (
	"errors"
	"time"

	"github.com/kilianp07/slotplan/core/model"
)

// RenewalSuffix is appended to a parent name to name its renewal.
const RenewalSuffix = " (Renewal)"

// RenewalName returns the name of the renewal synthesized from parent.
func RenewalName(parent string) string { return parent + RenewalSuffix }

// Registry is the validated, ordered working set of one run.
type Registry struct {
	projects []model.Project
}

// NewRegistry validates the raw projects, resolves default start dates
// against today and assigns colors from colors in input order. Explicit
// colors are kept but still consume a palette entry so that colors follow
// input position.
func NewRegistry(projects []model.Project, today time.Time, colors *model.ColorAllocator) (*Registry, error) {
	if colors == nil {
		colors = model.NewColorAllocator(nil)
	}
	names := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return nil, fieldError(p.Name, err)
		}
		if _, dup := names[p.Name]; dup {
			return nil, &ConfigurationError{Project: p.Name, Field: "name", Value: p.Name, Reason: "is duplicated"}
		}
		names[p.Name] = struct{}{}
	}
	out := make([]model.Project, len(projects))
	for i, p := range projects {
		if p.HasRenewal() {
			if _, clash := names[RenewalName(p.Name)]; clash {
				return nil, &ConfigurationError{Project: p.Name, Field: "renewal_days", Value: p.RenewalDays,
					Reason: "renewal name collides with an existing project"}
			}
		}
		p.StartDate = p.EffectiveStart(today)
		p.EndDate = model.Day(p.EndDate)
		c := colors.Next()
		if p.Color == "" {
			p.Color = c
		}
		out[i] = p
	}
	return &Registry{projects: out}, nil
}

func fieldError(project string, err error) error {
	var fe *model.FieldError
	if errors.As(err, &fe) {
		return &ConfigurationError{Project: project, Field: fe.Field, Value: fe.Value, Reason: fe.Reason}
	}
	return &ConfigurationError{Project: project, Field: "project", Reason: err.Error()}
}

// Projects returns a copy of the registry content.
func (r *Registry) Projects() []model.Project {
	return append([]model.Project(nil), r.projects...)
}

// Len returns the number of projects.
func (r *Registry) Len() int { return len(r.projects) }

// FilterByProbability keeps projects whose probability is at least min.
func FilterByProbability(projects []model.Project, min float64) []model.Project {
	if min <= 0 {
		return projects
	}
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if p.EffectiveProbability() >= min {
			out = append(out, p)
		}
	}
	return out
}
