package scheduler

import (
	"slices"
	"sort"

	"github.com/kilianp07/slotplan/core/calendar"
	"github.com/kilianp07/slotplan/core/model"
)

// FrontloadOrder returns registry indexes in the order frontload consumes
// them: priority descending, deadline ascending, outstanding work
// descending, then input order. A renewal never precedes its parent.
func FrontloadOrder(projects []model.Project) []int {
	order := make([]int, len(projects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return frontloadBefore(projects[order[a]], projects[order[b]])
	})
	pos := make(map[string]int, len(order))
	for k, i := range order {
		pos[projects[i].Name] = k
	}
	for k := 0; k < len(order); k++ {
		p := projects[order[k]]
		if !p.IsRenewal() {
			continue
		}
		parent, ok := pos[p.ParentName]
		if !ok || parent < k {
			continue
		}
		r := order[k]
		copy(order[k:parent], order[k+1:parent+1])
		order[parent] = r
		for j := k; j <= parent; j++ {
			pos[projects[order[j]].Name] = j
		}
		k--
	}
	return order
}

func frontloadBefore(a, b model.Project) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.EndDate.Equal(b.EndDate) {
		return a.EndDate.Before(b.EndDate)
	}
	return a.SlotsRemaining() > b.SlotsRemaining()
}

// queue inserts project i into the part of order after cursor, ahead of the
// first project it sorts before. The project at cursor keeps its place.
func queue(projects []model.Project, order []int, cursor, i int) []int {
	k := min(cursor+1, len(order))
	for k < len(order) && !frontloadBefore(projects[i], projects[order[k]]) {
		k++
	}
	return slices.Insert(order, k, i)
}

// SelectFrontload returns the head of order that still has work. A head
// that has not started yet holds the slot idle.
func SelectFrontload(s *State, order []int, cursor *int, slot model.Slot) Choice {
	for *cursor < len(order) && s.ps[order[*cursor]].remaining <= 0 {
		*cursor++
	}
	if *cursor >= len(order) {
		return Choice{Index: -1, Reason: ReasonNone}
	}
	i := order[*cursor]
	if !s.isStarted(i, slot.Date) {
		return Choice{Index: -1, Reason: ReasonWaiting}
	}
	return Choice{Index: i, Reason: ReasonSequence}
}

func runFrontload(st *State, cal calendar.Calendar) []model.ScheduledSlot {
	order := FrontloadOrder(st.projects)
	cursor := 0
	out := make([]model.ScheduledSlot, 0, cal.Len())
	for slot := range cal.All() {
		st.begin(slot)
		ch := SelectFrontload(st, order, &cursor, slot)
		n := len(st.projects)
		out = append(out, book(st, slot, ch))
		for i := n; i < len(st.projects); i++ {
			order = queue(st.projects, order, cursor, i)
		}
	}
	return out
}
