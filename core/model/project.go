package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by project files and exports.
const DateLayout = "2006-01-02"

// Project is a body of work competing for half-day slots.
type Project struct {
	Name string
	// StartDate is the first day the project may be scheduled. The zero value
	// means the project is available from the planning start.
	StartDate time.Time
	// EndDate is the hard deadline.
	EndDate time.Time
	// RemainingDays is the outstanding work in days. 0.5 is a half-day.
	RemainingDays float64
	// RenewalDays enables a follow-on project of that size once this one
	// completes inside the horizon. 0 disables renewal.
	RenewalDays float64
	// RenewalLagDays delays the renewal start past the day after completion.
	RenewalLagDays int
	Priority       int
	// Probability is the likelihood the project goes ahead, in [0,1].
	// The zero value is treated as certain.
	Probability float64
	Color       string
	// ParentName is set on synthesized renewals only.
	ParentName string
}

// IsRenewal reports whether p was synthesized from a parent project.
func (p Project) IsRenewal() bool { return p.ParentName != "" }

// HasRenewal reports whether p should spawn a renewal on completion.
func (p Project) HasRenewal() bool { return p.RenewalDays > 0 && !p.IsRenewal() }

// SlotsRemaining converts RemainingDays into half-day slots. A remainder
// smaller than a half-day still occupies a whole slot.
func (p Project) SlotsRemaining() int {
	if p.RemainingDays <= 0 {
		return 0
	}
	return int(math.Ceil(p.RemainingDays*2 - 1e-9))
}

// EffectiveProbability returns Probability with the zero value mapped to 1.
func (p Project) EffectiveProbability() float64 {
	if p.Probability == 0 {
		return 1
	}
	return p.Probability
}

// EffectiveStart returns the start date, falling back to from when unset.
func (p Project) EffectiveStart(from time.Time) time.Time {
	if p.StartDate.IsZero() {
		return Day(from)
	}
	return Day(p.StartDate)
}

// DaysUntilDeadline returns the calendar days between from and EndDate.
// The result is negative once the deadline has passed.
func (p Project) DaysUntilDeadline(from time.Time) int {
	return DaysBetween(from, p.EndDate)
}

// FieldError reports an invalid project field.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s %s", e.Field, e.Reason) }

// Validate checks the invariants of a single project record.
func (p Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return &FieldError{Field: "name", Value: p.Name, Reason: "is required"}
	case p.EndDate.IsZero():
		return &FieldError{Field: "end_date", Reason: "is required"}
	case p.RemainingDays < 0:
		return &FieldError{Field: "remaining_days", Value: p.RemainingDays, Reason: "must not be negative"}
	case p.RenewalDays < 0:
		return &FieldError{Field: "renewal_days", Value: p.RenewalDays, Reason: "must not be negative"}
	case p.RenewalLagDays < 0:
		return &FieldError{Field: "renewal_lag_days", Value: p.RenewalLagDays, Reason: "must not be negative"}
	case p.Probability < 0 || p.Probability > 1:
		return &FieldError{Field: "probability", Value: p.Probability, Reason: "must be within [0,1]"}
	case !p.StartDate.IsZero() && Day(p.EndDate).Before(Day(p.StartDate)):
		return &FieldError{Field: "end_date", Value: p.EndDate.Format(DateLayout), Reason: "is before start_date"}
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
