package config

import (
	"github.com/kilianp07/slotplan/core/model"
	"github.com/kilianp07/slotplan/core/scheduler"
)

// ProjectRecord is a project as written in the planner file.
type ProjectRecord struct {
	Name           string  `json:"name"`
	EndDate        string  `json:"end_date"`
	RemainingDays  float64 `json:"remaining_days"`
	StartDate      string  `json:"start_date"`
	RenewalDays    float64 `json:"renewal_days"`
	RenewalLagDays int     `json:"renewal_lag_days"`
	Priority       int     `json:"priority"`
	// Probability defaults to 1 when omitted.
	Probability float64 `json:"probability"`
	Color       string  `json:"color"`
}

func dateError(project, field, value string) error {
	return &scheduler.ConfigurationError{Project: project, Field: field, Value: value, Reason: "is not a YYYY-MM-DD date"}
}

// Project converts the record, parsing its dates.
func (r ProjectRecord) Project() (model.Project, error) {
	p := model.Project{
		Name:           r.Name,
		RemainingDays:  r.RemainingDays,
		RenewalDays:    r.RenewalDays,
		RenewalLagDays: r.RenewalLagDays,
		Priority:       r.Priority,
		Probability:    r.Probability,
		Color:          r.Color,
	}
	if r.EndDate == "" {
		return p, &scheduler.ConfigurationError{Project: r.Name, Field: "end_date", Reason: "is required"}
	}
	end, err := model.ParseDate(r.EndDate)
	if err != nil {
		return p, dateError(r.Name, "end_date", r.EndDate)
	}
	p.EndDate = end
	if r.StartDate != "" {
		start, err := model.ParseDate(r.StartDate)
		if err != nil {
			return p, dateError(r.Name, "start_date", r.StartDate)
		}
		p.StartDate = start
	}
	return p, nil
}

// ProjectList converts every record in file order. Field level checks
// beyond date parsing are left to the scheduler.
func (c Config) ProjectList() ([]model.Project, error) {
	out := make([]model.Project, 0, len(c.Projects))
	for _, r := range c.Projects {
		p, err := r.Project()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
