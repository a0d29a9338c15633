package scheduler

import (
	"time"

	"github.com/kilianp07/slotplan/core/model"
)

// buildStats derives per-project statistics from a finished slot sequence.
// Stats follow the order of projects.
func buildStats(projects []model.Project, slots []model.ScheduledSlot, weeks int) []model.ProjectStats {
	idx := make(map[string]int, len(projects))
	out := make([]model.ProjectStats, len(projects))
	for i, p := range projects {
		idx[p.Name] = i
		out[i] = model.ProjectStats{
			Name:           p.Name,
			Color:          p.Color,
			Priority:       p.Priority,
			ParentName:     p.ParentName,
			RequestedSlots: p.SlotsRemaining(),
		}
	}
	for _, sl := range slots {
		i, ok := idx[sl.Project]
		if !ok {
			continue
		}
		st := &out[i]
		if st.AssignedSlots == 0 {
			st.FirstScheduled = sl.Date
		}
		st.AssignedSlots++
		st.LastScheduled = sl.Date
	}
	for i := range out {
		st := &out[i]
		st.RemainingSlots = st.RequestedSlots - st.AssignedSlots
		if weeks > 0 {
			st.SlotsPerWeek = float64(st.AssignedSlots) / float64(weeks)
			st.DaysPerWeek = st.SlotsPerWeek / 2
		}
		switch {
		case st.RemainingSlots == 0:
			st.Status = model.StatusFull
		case st.AssignedSlots > 0:
			st.Status = model.StatusPartial
		default:
			st.Status = model.StatusNotScheduled
		}
	}
	return out
}

// GapException is a stretch of more than MaxGapDays during which a project
// with outstanding work and a live deadline received no slot.
type GapException struct {
	Project string
	From    time.Time
	To      time.Time
	Days    int
}

// GapExceptions lists the two-week gaps of s. Gaps are measured from the
// later of the project start and the schedule start, and never extend past
// the project deadline. Paced schedules only produce them when a higher
// priority tier or overdue work left no room.
func GapExceptions(s *model.Schedule) []GapException {
	var lastDate time.Time
	if n := len(s.Slots); n > 0 {
		lastDate = s.Slots[n-1].Date
	}
	var out []GapException
	for _, p := range s.Projects {
		if p.SlotsRemaining() == 0 {
			continue
		}
		prev := p.StartDate
		if prev.Before(s.Start) {
			prev = s.Start
		}
		check := func(to time.Time) {
			if prev.After(p.EndDate) {
				return
			}
			if to.After(p.EndDate) {
				to = p.EndDate
			}
			if d := model.DaysBetween(prev, to); d > MaxGapDays {
				out = append(out, GapException{Project: p.Name, From: prev, To: to, Days: d})
			}
		}
		assigned := 0
		for _, sl := range s.Slots {
			if sl.Project != p.Name {
				continue
			}
			check(sl.Date)
			prev = sl.Date
			assigned++
		}
		if assigned < p.SlotsRemaining() && !lastDate.IsZero() {
			check(lastDate)
		}
	}
	return out
}
