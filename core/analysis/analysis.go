// Package analysis derives reporting series from a finished schedule:
// weekly availability, monthly unassigned time and smoothed per-project
// allocation.
package analysis

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/slotplan/core/model"
)

// SmoothingWindow is the number of weeks averaged by the allocation and
// coverage series.
const SmoothingWindow = 4

// WeekAvailability is the share of idle slots in one horizon week.
type WeekAvailability struct {
	Week             int
	Start            time.Time
	TotalSlots       int
	UnassignedSlots  int
	PercentAvailable float64
}

// Coverage is the complement of PercentAvailable.
func (w WeekAvailability) Coverage() float64 { return 100 - w.PercentAvailable }

// WeeklyAvailability reports, for every week of the horizon, how many slots
// were left unassigned.
func WeeklyAvailability(s *model.Schedule) []WeekAvailability {
	out := make([]WeekAvailability, s.Weeks)
	for w := range out {
		out[w] = WeekAvailability{Week: w, Start: s.Start.AddDate(0, 0, 7*w), PercentAvailable: 100}
	}
	for _, sl := range s.Slots {
		w := weekOf(s, sl.Date)
		if w < 0 || w >= len(out) {
			continue
		}
		out[w].TotalSlots++
		if !sl.Assigned() {
			out[w].UnassignedSlots++
		}
	}
	for w := range out {
		if out[w].TotalSlots > 0 {
			out[w].PercentAvailable = float64(out[w].UnassignedSlots) / float64(out[w].TotalSlots) * 100
		}
	}
	return out
}

// MonthUnassigned is the idle time falling in one calendar month.
type MonthUnassigned struct {
	Year           int
	Month          time.Month
	UnassignedDays float64
}

// Label renders the month as "January 2025".
func (m MonthUnassigned) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// MonthlyUnassigned sums idle slots per calendar month, in days. Months
// without idle time are omitted unless includeZero is set, in which case
// every month touched by the horizon is listed.
func MonthlyUnassigned(s *model.Schedule, includeZero bool) []MonthUnassigned {
	if len(s.Slots) == 0 {
		return nil
	}
	var out []MonthUnassigned
	pos := make(map[time.Time]int)
	add := func(d time.Time) int {
		key := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if i, ok := pos[key]; ok {
			return i
		}
		pos[key] = len(out)
		out = append(out, MonthUnassigned{Year: key.Year(), Month: key.Month()})
		return len(out) - 1
	}
	if includeZero {
		last := s.End.AddDate(0, 0, -1)
		for m := time.Date(s.Start.Year(), s.Start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(last); m = m.AddDate(0, 1, 0) {
			add(m)
		}
	}
	for _, sl := range s.Slots {
		if sl.Assigned() {
			continue
		}
		i := add(sl.Date)
		out[i].UnassignedDays += 0.5
	}
	return out
}

// ProjectWeek is the smoothed share of a week's slots given to a project.
type ProjectWeek struct {
	Week int
	// End is the last weekday of the week.
	End             time.Time
	Project         string
	Percent         float64
	SmoothedPercent float64
}

// WeeklyAllocation returns, per project and week, the percentage of the
// week's slots it received, along with a trailing SmoothingWindow-week
// average. Projects with no slot at all are omitted. Rows are ordered by
// project in schedule order, then week.
func WeeklyAllocation(s *model.Schedule) []ProjectWeek {
	weeks := s.Weeks
	total := make([]float64, weeks)
	per := make(map[string][]float64)
	for _, sl := range s.Slots {
		w := weekOf(s, sl.Date)
		if w < 0 || w >= weeks {
			continue
		}
		total[w]++
		if !sl.Assigned() {
			continue
		}
		if per[sl.Project] == nil {
			per[sl.Project] = make([]float64, weeks)
		}
		per[sl.Project][w]++
	}

	var out []ProjectWeek
	for _, p := range s.Projects {
		counts, ok := per[p.Name]
		if !ok {
			continue
		}
		pct := make([]float64, weeks)
		for w := range pct {
			if total[w] > 0 {
				pct[w] = counts[w] / total[w] * 100
			}
		}
		smooth := Trailing(pct, SmoothingWindow)
		for w := range pct {
			out = append(out, ProjectWeek{
				Week:            w,
				End:             lastWeekday(s.Start.AddDate(0, 0, 7*w)),
				Project:         p.Name,
				Percent:         pct[w],
				SmoothedPercent: smooth[w],
			})
		}
	}
	return out
}

// Trailing averages each value with up to window-1 predecessors.
func Trailing(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo := max(0, i-window+1)
		out[i] = stat.Mean(values[lo:i+1], nil)
	}
	return out
}

// Centered averages each value over a window straddling it, shrinking the
// window at both ends. An even window leans one element into the past.
func Centered(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	back := window / 2
	ahead := window - back - 1
	for i := range values {
		lo := max(0, i-back)
		hi := min(len(values), i+ahead+1)
		out[i] = stat.Mean(values[lo:hi], nil)
	}
	return out
}

// CoverageSeries returns the centered, smoothed coverage percentage of each
// week, suitable for comparing methods.
func CoverageSeries(weeks []WeekAvailability) []float64 {
	raw := make([]float64, len(weeks))
	for i, w := range weeks {
		raw[i] = w.Coverage()
	}
	return Centered(raw, SmoothingWindow)
}

// PeakWeek returns the index and value of the highest point of series, or
// -1 when it is empty.
func PeakWeek(series []float64) (int, float64) {
	if len(series) == 0 {
		return -1, 0
	}
	i := floats.MaxIdx(series)
	return i, series[i]
}

// Utilization is the share of horizon slots that carry a project.
func Utilization(s *model.Schedule) float64 {
	if len(s.Slots) == 0 {
		return 0
	}
	return float64(s.AssignedSlots()) / float64(len(s.Slots))
}

func weekOf(s *model.Schedule, d time.Time) int {
	return model.DaysBetween(s.Start, d) / 7
}

func lastWeekday(weekStart time.Time) time.Time {
	end := weekStart
	for i := 0; i < 7; i++ {
		d := weekStart.AddDate(0, 0, i)
		if !model.IsWeekend(d) {
			end = d
		}
	}
	return end
}
