package model

import "time"

// CompletionStatus classifies how much of a project fit in the horizon.
type CompletionStatus int

const (
	StatusFull CompletionStatus = iota
	StatusPartial
	StatusNotScheduled
)

// String returns a stable identifier used in exports.
func (c CompletionStatus) String() string {
	switch c {
	case StatusFull:
		return "full"
	case StatusPartial:
		return "partial"
	case StatusNotScheduled:
		return "not_scheduled"
	default:
		return "unknown"
	}
}

// ProjectStats summarizes the allocation of one project.
type ProjectStats struct {
	Name           string
	Color          string
	Priority       int
	ParentName     string
	RequestedSlots int
	AssignedSlots  int
	RemainingSlots int
	SlotsPerWeek   float64
	DaysPerWeek    float64
	// FirstScheduled and LastScheduled are zero when no slot was assigned.
	FirstScheduled time.Time
	LastScheduled  time.Time
	Status         CompletionStatus
}

// FullyScheduled reports whether all requested work was placed.
func (s ProjectStats) FullyScheduled() bool { return s.Status == StatusFull }

// CompletionDate returns the date of the final slot of a fully scheduled
// project that had work to do.
func (s ProjectStats) CompletionDate() (time.Time, bool) {
	if s.Status != StatusFull || s.AssignedSlots == 0 {
		return time.Time{}, false
	}
	return s.LastScheduled, true
}
