package scheduler

import (
	"cmp"
	"slices"
	"time"

	"github.com/kilianp07/slotplan/core/calendar"
	"github.com/kilianp07/slotplan/core/model"
)

// Renewal returns the follow-on project of parent when parent's last slot
// falls on done. ok is false when parent does not renew or when the renewal
// would start on or after horizonEnd.
func Renewal(parent model.Project, done, horizonEnd time.Time) (model.Project, bool) {
	if !parent.HasRenewal() {
		return model.Project{}, false
	}
	start := model.Day(done).AddDate(0, 0, 1+parent.RenewalLagDays)
	if !start.Before(horizonEnd) {
		return model.Project{}, false
	}
	return model.Project{
		Name:          RenewalName(parent.Name),
		StartDate:     start,
		EndDate:       start.AddDate(1, 0, 0),
		RemainingDays: parent.RenewalDays,
		Priority:      parent.Priority,
		Probability:   parent.Probability,
		Color:         parent.Color,
		ParentName:    parent.Name,
	}, true
}

// allocation is the outcome of an engine run over a registry.
type allocation struct {
	projects []model.Project
	slots    []model.ScheduledSlot
	renewals int
}

// allocate runs method once over the registry. Renewals join the run when
// their parent takes its last slot, so their start dates come from slots
// already booked.
func allocate(reg *Registry, cal calendar.Calendar, method model.Method) allocation {
	st := NewState(reg.Projects(), cal.Start())
	st.renewUntil(cal.End())

	var slots []model.ScheduledSlot
	if method == model.MethodFrontload {
		slots = runFrontload(st, cal)
	} else {
		slots = runPaced(st, cal)
	}

	base := reg.Len()
	renewals := slices.Clone(st.projects[base:])
	slices.SortStableFunc(renewals, func(a, b model.Project) int {
		return cmp.Compare(st.index[a.ParentName], st.index[b.ParentName])
	})
	projects := append(slices.Clone(st.projects[:base]), renewals...)
	return allocation{projects: projects, slots: slots, renewals: len(renewals)}
}
