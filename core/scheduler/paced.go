package scheduler

import (
	"github.com/kilianp07/slotplan/core/calendar"
	"github.com/kilianp07/slotplan/core/model"
)

// runPaced walks the calendar once, asking SelectPaced for every slot.
func runPaced(st *State, cal calendar.Calendar) []model.ScheduledSlot {
	out := make([]model.ScheduledSlot, 0, cal.Len())
	for slot := range cal.All() {
		st.begin(slot)
		ch := SelectPaced(st, slot)
		out = append(out, book(st, slot, ch))
	}
	return out
}

func book(st *State, slot model.Slot, ch Choice) model.ScheduledSlot {
	if ch.Index < 0 {
		st.idle()
		return model.ScheduledSlot{Slot: slot}
	}
	st.accrue(ch.tier)
	st.assign(ch.Index, slot)
	return model.ScheduledSlot{Slot: slot, Project: st.projects[ch.Index].Name}
}
