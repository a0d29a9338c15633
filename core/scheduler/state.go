package scheduler

import (
	"time"

	"github.com/kilianp07/slotplan/core/calendar"
	"github.com/kilianp07/slotplan/core/model"
)

// projectState is the per-run bookkeeping of one project.
type projectState struct {
	remaining int
	// lastSlot is -1 until the project is first assigned.
	lastSlot int
	lastDate time.Time
	// credit accumulates the project's share of every slot its tier
	// competed for and is charged one unit per assigned slot.
	credit float64
}

// State is the mutable side of a run. Selection functions read it, drivers
// advance it. Projects are addressed by their registry index so that every
// tie is broken by input order.
type State struct {
	projects []model.Project
	today    time.Time
	ps       []projectState
	index    map[string]int

	// renewals are spawned only when horizon is set.
	horizon time.Time

	// current is the project of the previous slot, -1 after an idle slot
	// or a weekend.
	current     int
	consecutive int
	prevDate    time.Time
	started     bool
}

// NewState prepares a run over projects starting at today.
func NewState(projects []model.Project, today time.Time) *State {
	st := &State{
		projects: projects,
		today:    model.Day(today),
		ps:       make([]projectState, len(projects)),
		index:    make(map[string]int, len(projects)),
		current:  -1,
	}
	for i, p := range projects {
		st.ps[i] = projectState{remaining: p.SlotsRemaining(), lastSlot: -1}
		st.index[p.Name] = i
	}
	return st
}

// renewUntil makes finishing projects spawn their renewal when it starts
// before end. Parents without work left renew from today.
func (s *State) renewUntil(end time.Time) {
	s.horizon = end
	for i := range len(s.projects) {
		if s.ps[i].remaining <= 0 {
			s.renew(i, s.today.AddDate(0, 0, -1))
		}
	}
}

// renew appends the renewal of project i, finished on done, to the run.
func (s *State) renew(i int, done time.Time) {
	if s.horizon.IsZero() {
		return
	}
	r, ok := Renewal(s.projects[i], done, s.horizon)
	if !ok {
		return
	}
	s.index[r.Name] = len(s.projects)
	s.projects = append(s.projects, r)
	s.ps = append(s.ps, projectState{remaining: r.SlotsRemaining(), lastSlot: -1})
}

// Remaining returns the outstanding slots of project i.
func (s *State) Remaining(i int) int { return s.ps[i].remaining }

// Current returns the project of the previous slot and its run length.
func (s *State) Current() (int, int) { return s.current, s.consecutive }

// begin resets continuity when the slot follows a non-working day.
func (s *State) begin(slot model.Slot) {
	if s.started && calendar.CrossesBreak(s.prevDate, slot.Date) {
		s.current, s.consecutive = -1, 0
	}
	s.started = true
	s.prevDate = slot.Date
}

// assign books slot for project i.
func (s *State) assign(i int, slot model.Slot) {
	p := &s.ps[i]
	p.remaining--
	p.lastSlot = slot.Index
	p.lastDate = slot.Date
	p.credit--
	if s.current == i {
		s.consecutive++
	} else {
		s.current, s.consecutive = i, 1
	}
	if p.remaining == 0 {
		s.renew(i, slot.Date)
	}
}

// idle records an unassigned slot.
func (s *State) idle() {
	s.current, s.consecutive = -1, 0
}

// accrue credits every tier member with its share of remaining work.
func (s *State) accrue(tier []int) {
	shares := s.shares(tier)
	for k, i := range tier {
		s.ps[i].credit += shares[k]
	}
}

// shares returns each tier member's fraction of the tier's remaining slots.
func (s *State) shares(tier []int) []float64 {
	total := 0
	for _, i := range tier {
		total += s.ps[i].remaining
	}
	out := make([]float64, len(tier))
	if total == 0 {
		return out
	}
	for k, i := range tier {
		out[k] = float64(s.ps[i].remaining) / float64(total)
	}
	return out
}

// isStarted reports whether project i may be scheduled on d.
func (s *State) isStarted(i int, d time.Time) bool {
	return !s.projects[i].StartDate.After(d)
}

// onTime reports whether project i's deadline is on or after d.
func (s *State) onTime(i int, d time.Time) bool {
	return !s.projects[i].EndDate.Before(d)
}

// elapsedDays returns the calendar days since project i was last worked on,
// or since it became available to this run when it never was.
func (s *State) elapsedDays(i int, d time.Time) int {
	ref := s.ps[i].lastDate
	if s.ps[i].lastSlot < 0 {
		ref = s.projects[i].StartDate
		if ref.Before(s.today) {
			ref = s.today
		}
	}
	return model.DaysBetween(ref, d)
}
