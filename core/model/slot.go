package model

import "time"

// Half identifies the morning or afternoon half of a working day.
type Half int

const (
	AM Half = iota
	PM
)

// String returns "AM" or "PM".
func (h Half) String() string {
	if h == PM {
		return "PM"
	}
	return "AM"
}

// Slot is one schedulable half-day.
type Slot struct {
	// Index is the position of the slot in the calendar, starting at 0.
	Index int
	Date  time.Time
	Half  Half
}

// ScheduledSlot pairs a slot with the project assigned to it.
type ScheduledSlot struct {
	Slot
	// Project is the assigned project name, empty when unassigned.
	Project string
}

// Assigned reports whether a project was placed in the slot.
func (s ScheduledSlot) Assigned() bool { return s.Project != "" }
