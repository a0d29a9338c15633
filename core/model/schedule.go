package model

import (
	"sort"
	"time"
)

// Method selects the allocation strategy.
type Method string

const (
	MethodPaced     Method = "paced"
	MethodFrontload Method = "frontload"
)

// Valid reports whether m names a known strategy.
func (m Method) Valid() bool { return m == MethodPaced || m == MethodFrontload }

// Schedule is the result of one planning run. It is built once by the
// scheduler and must be treated as read-only.
type Schedule struct {
	Method Method
	// Start is the reference "today" of the run.
	Start time.Time
	// End is the exclusive end of the horizon.
	End   time.Time
	Weeks int
	// Projects is the expanded registry: input order followed by renewals.
	Projects []Project
	Slots    []ScheduledSlot
	Stats    []ProjectStats
}

// SlotsForDate returns the slots on the given date in AM, PM order.
func (s *Schedule) SlotsForDate(d time.Time) []ScheduledSlot {
	d = Day(d)
	var out []ScheduledSlot
	for _, sl := range s.Slots {
		if sl.Date.Equal(d) {
			out = append(out, sl)
		}
	}
	return out
}

// ProjectSlots returns the slots assigned to the named project.
func (s *Schedule) ProjectSlots(name string) []ScheduledSlot {
	var out []ScheduledSlot
	for _, sl := range s.Slots {
		if sl.Project == name {
			out = append(out, sl)
		}
	}
	return out
}

// UniqueDates returns every date carrying at least one slot, ascending.
func (s *Schedule) UniqueDates() []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, sl := range s.Slots {
		if _, ok := seen[sl.Date]; ok {
			continue
		}
		seen[sl.Date] = struct{}{}
		out = append(out, sl.Date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// LastWorkDate returns the date of the last assigned slot.
func (s *Schedule) LastWorkDate() (time.Time, bool) {
	for i := len(s.Slots) - 1; i >= 0; i-- {
		if s.Slots[i].Assigned() {
			return s.Slots[i].Date, true
		}
	}
	return time.Time{}, false
}

// AssignedSlots counts slots carrying a project.
func (s *Schedule) AssignedSlots() int {
	n := 0
	for _, sl := range s.Slots {
		if sl.Assigned() {
			n++
		}
	}
	return n
}

// UnassignedSlots counts idle slots.
func (s *Schedule) UnassignedSlots() int { return len(s.Slots) - s.AssignedSlots() }

// UnscheduledSlots is the work, in slots, that did not fit in the horizon.
func (s *Schedule) UnscheduledSlots() int {
	n := 0
	for _, st := range s.Stats {
		n += st.RemainingSlots
	}
	return n
}

// UnscheduledDays is UnscheduledSlots expressed in days.
func (s *Schedule) UnscheduledDays() float64 { return float64(s.UnscheduledSlots()) / 2 }

// Project looks a project up by name.
func (s *Schedule) Project(name string) (Project, bool) {
	for _, p := range s.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}

// Stat returns the statistics of the named project.
func (s *Schedule) Stat(name string) (ProjectStats, bool) {
	for _, st := range s.Stats {
		if st.Name == name {
			return st, true
		}
	}
	return ProjectStats{}, false
}
