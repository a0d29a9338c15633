// Package calendar enumerates the schedulable half-day slots of a planning
// horizon. Weekends are never emitted.
package calendar

import (
	"iter"
	"slices"
	"time"

	"github.com/kilianp07/slotplan/core/model"
)

// SlotsPerDay is the number of half-day slots in a working day.
const SlotsPerDay = 2

// Calendar describes a horizon of whole weeks starting at a reference day.
// It holds no assignment state and can be iterated any number of times.
type Calendar struct {
	start time.Time
	weeks int
}

// New returns a calendar of weeks weeks starting on start.
func New(start time.Time, weeks int) Calendar {
	return Calendar{start: model.Day(start), weeks: weeks}
}

// Start returns the reference day.
func (c Calendar) Start() time.Time { return c.start }

// End returns the exclusive end of the horizon.
func (c Calendar) End() time.Time { return c.start.AddDate(0, 0, 7*c.weeks) }

// Weeks returns the horizon length in weeks.
func (c Calendar) Weeks() int { return c.weeks }

// Len returns the number of slots in the horizon.
func (c Calendar) Len() int { return c.weeks * 5 * SlotsPerDay }

// All yields every slot in chronological order.
func (c Calendar) All() iter.Seq[model.Slot] {
	return func(yield func(model.Slot) bool) {
		idx := 0
		for day := 0; day < 7*c.weeks; day++ {
			d := c.start.AddDate(0, 0, day)
			if model.IsWeekend(d) {
				continue
			}
			for h := model.AM; h <= model.PM; h++ {
				if !yield(model.Slot{Index: idx, Date: d, Half: h}) {
					return
				}
				idx++
			}
		}
	}
}

// Slots materializes All.
func (c Calendar) Slots() []model.Slot { return slices.Collect(c.All()) }

// NextWorkday returns the first weekday strictly after d.
func NextWorkday(d time.Time) time.Time {
	n := model.Day(d).AddDate(0, 0, 1)
	for model.IsWeekend(n) {
		n = n.AddDate(0, 0, 1)
	}
	return n
}

// CrossesBreak reports whether a non-working day lies between two slot dates.
func CrossesBreak(prev, cur time.Time) bool {
	return model.DaysBetween(prev, cur) > 1
}
