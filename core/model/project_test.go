package model

import (
	"testing"
	"time"
)

func TestProjectSlotsRemaining(t *testing.T) {
	cases := []struct {
		days float64
		want int
	}{
		{0, 0},
		{0.5, 1},
		{1, 2},
		{2.5, 5},
		{0.25, 1},
		{-1, 0},
	}
	for _, c := range cases {
		p := Project{RemainingDays: c.days}
		if got := p.SlotsRemaining(); got != c.want {
			t.Errorf("days %.2f: expected %d got %d", c.days, c.want, got)
		}
	}
}

func TestProjectValidate(t *testing.T) {
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	valid := Project{Name: "a", EndDate: end, RemainingDays: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []Project{
		{Name: "", EndDate: end},
		{Name: "a"},
		{Name: "a", EndDate: end, RemainingDays: -1},
		{Name: "a", EndDate: end, RenewalDays: -2},
		{Name: "a", EndDate: end, Probability: 1.5},
		{Name: "a", EndDate: end, StartDate: end.AddDate(0, 0, 1)},
	}
	for i, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestDaysBetweenAndEffectiveStart(t *testing.T) {
	a := time.Date(2025, 1, 6, 15, 30, 0, 0, time.UTC)
	b := time.Date(2025, 1, 20, 1, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 14 {
		t.Fatalf("expected 14 got %d", d)
	}
	if d := DaysBetween(b, a); d != -14 {
		t.Fatalf("expected -14 got %d", d)
	}
	p := Project{}
	if !p.EffectiveStart(a).Equal(Day(a)) {
		t.Fatalf("expected fallback to reference day")
	}
	p.StartDate = b
	if !p.EffectiveStart(a).Equal(Day(b)) {
		t.Fatalf("expected explicit start")
	}
}

func TestColorAllocatorWraps(t *testing.T) {
	a := NewColorAllocator(Palette{"x", "y"})
	got := []string{a.Next(), a.Next(), a.Next()}
	if got[0] != "x" || got[1] != "y" || got[2] != "x" {
		t.Fatalf("unexpected sequence %v", got)
	}
	if NewColorAllocator(nil).Next() != DefaultPalette[0] {
		t.Fatalf("expected default palette")
	}
}

func TestScheduleQueries(t *testing.T) {
	d1 := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	s := Schedule{Slots: []ScheduledSlot{
		{Slot: Slot{Index: 0, Date: d1, Half: AM}, Project: "a"},
		{Slot: Slot{Index: 1, Date: d1, Half: PM}, Project: "b"},
		{Slot: Slot{Index: 2, Date: d2, Half: AM}, Project: "a"},
		{Slot: Slot{Index: 3, Date: d2, Half: PM}},
	}, Stats: []ProjectStats{{Name: "a", RemainingSlots: 3}}}
	if n := len(s.ProjectSlots("a")); n != 2 {
		t.Fatalf("expected 2 slots for a, got %d", n)
	}
	if n := len(s.SlotsForDate(d1)); n != 2 {
		t.Fatalf("expected 2 slots on d1, got %d", n)
	}
	if dates := s.UniqueDates(); len(dates) != 2 || !dates[1].Equal(d2) {
		t.Fatalf("unexpected dates %v", dates)
	}
	last, ok := s.LastWorkDate()
	if !ok || !last.Equal(d2) {
		t.Fatalf("unexpected last work date %v", last)
	}
	if s.UnassignedSlots() != 1 || s.AssignedSlots() != 3 {
		t.Fatalf("unexpected counts")
	}
	if s.UnscheduledDays() != 1.5 {
		t.Fatalf("expected 1.5 unscheduled days got %v", s.UnscheduledDays())
	}
}
