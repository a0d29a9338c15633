package metrics

import (
	"time"

	"github.com/kilianp07/slotplan/core/analysis"
	"github.com/kilianp07/slotplan/core/model"
)

// ProjectSummary is the per-project part of a RunSummary.
type ProjectSummary struct {
	Name           string    `json:"name"`
	Parent         string    `json:"parent,omitempty"`
	Priority       int       `json:"priority"`
	AssignedSlots  int       `json:"assigned_slots"`
	RemainingSlots int       `json:"remaining_slots"`
	DaysPerWeek    float64   `json:"days_per_week"`
	Status         string    `json:"status"`
	Completion     time.Time `json:"completion,omitempty"`
}

// RunSummary is the reportable outcome of one planning run.
type RunSummary struct {
	RunID           string           `json:"run_id"`
	Method          string           `json:"method"`
	Today           time.Time        `json:"today"`
	Weeks           int              `json:"weeks"`
	GeneratedAt     time.Time        `json:"generated_at"`
	AssignedSlots   int              `json:"assigned_slots"`
	UnassignedSlots int              `json:"unassigned_slots"`
	UnscheduledDays float64          `json:"unscheduled_days"`
	Utilization     float64          `json:"utilization"`
	Projects        []ProjectSummary `json:"projects"`
}

// Summarize flattens a schedule into a RunSummary.
func Summarize(s *model.Schedule, runID string, at time.Time) RunSummary {
	sum := RunSummary{
		RunID:           runID,
		Method:          string(s.Method),
		Today:           s.Start,
		Weeks:           s.Weeks,
		GeneratedAt:     at,
		AssignedSlots:   s.AssignedSlots(),
		UnassignedSlots: s.UnassignedSlots(),
		UnscheduledDays: s.UnscheduledDays(),
		Utilization:     analysis.Utilization(s),
		Projects:        make([]ProjectSummary, 0, len(s.Stats)),
	}
	for _, st := range s.Stats {
		ps := ProjectSummary{
			Name:           st.Name,
			Parent:         st.ParentName,
			Priority:       st.Priority,
			AssignedSlots:  st.AssignedSlots,
			RemainingSlots: st.RemainingSlots,
			DaysPerWeek:    st.DaysPerWeek,
			Status:         st.Status.String(),
		}
		if d, ok := st.CompletionDate(); ok {
			ps.Completion = d
		}
		sum.Projects = append(sum.Projects, ps)
	}
	return sum
}

// ScheduleSink records planning runs for observability purposes.
type ScheduleSink interface {
	RecordSchedule(sum RunSummary) error
}

// PlanFailure describes a run that was rejected before scheduling.
type PlanFailure struct {
	Reason string
	Time   time.Time
}

// FailureRecorder is implemented by sinks able to count rejected runs.
type FailureRecorder interface {
	RecordPlanFailure(f PlanFailure) error
}

// NopSink implements ScheduleSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSchedule(RunSummary) error     { return nil }
func (NopSink) RecordPlanFailure(PlanFailure) error { return nil }

// MultiSink fans runs out to multiple sinks.
type MultiSink struct {
	Sinks []ScheduleSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...ScheduleSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSchedule forwards the summary to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSchedule(sum RunSummary) error {
	for _, s := range m.Sinks {
		if err := s.RecordSchedule(sum); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlanFailure forwards failures to sinks that support them.
func (m *MultiSink) RecordPlanFailure(f PlanFailure) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FailureRecorder); ok {
			if err := rec.RecordPlanFailure(f); err != nil {
				return err
			}
		}
	}
	return nil
}
