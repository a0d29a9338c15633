// Package render draws schedules for the terminal.
package render

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/slotplan/core/analysis"
	"github.com/kilianp07/slotplan/core/model"
)

const (
	fullBlock = "█"
	idleBlock = "░"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

var (
	mutedColor   = lipgloss.Color("#6B7280")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
)

// Renderer styles output for one terminal.
type Renderer struct {
	r *lipgloss.Renderer
}

// New returns a Renderer for r, or for the default output when r is nil.
func New(r *lipgloss.Renderer) *Renderer {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Renderer{r: r}
}

func (rd *Renderer) style() lipgloss.Style { return rd.r.NewStyle() }

func (rd *Renderer) block(color, text string) string {
	if color == "" {
		return text
	}
	return rd.style().Foreground(lipgloss.Color(color)).Render(text)
}

func colors(s *model.Schedule) map[string]string {
	out := make(map[string]string, len(s.Projects))
	for _, p := range s.Projects {
		out[p.Name] = p.Color
	}
	for _, st := range s.Stats {
		if _, ok := out[st.Name]; !ok {
			out[st.Name] = st.Color
		}
	}
	return out
}

func mondayOf(d time.Time) time.Time {
	return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
}

// Tiles draws one row per weekday and one column per calendar week. A tile
// is two characters wide: the morning half then the afternoon half.
func (rd *Renderer) Tiles(s *model.Schedule, legend bool) string {
	if len(s.Slots) == 0 {
		return "No schedule to display."
	}
	col := colors(s)
	first := mondayOf(s.Slots[0].Date)
	last := s.Slots[len(s.Slots)-1].Date
	weeks := model.DaysBetween(first, last)/7 + 1

	grid := make([][]string, 5)
	for d := range grid {
		grid[d] = make([]string, weeks)
		for w := range grid[d] {
			grid[d][w] = "  "
		}
	}
	for _, date := range s.UniqueDates() {
		d := (int(date.Weekday()) + 6) % 7
		if d > 4 {
			continue
		}
		w := model.DaysBetween(first, date) / 7
		halves := [2]string{idleBlock, idleBlock}
		for _, sl := range s.SlotsForDate(date) {
			if sl.Assigned() {
				halves[sl.Half] = rd.block(col[sl.Project], fullBlock)
			}
		}
		grid[d][w] = halves[0] + halves[1]
	}

	var b strings.Builder
	if legend {
		b.WriteString(rd.Legend(s))
		b.WriteString("\n")
	}
	b.WriteString("    ")
	lastMonth := time.Month(0)
	for w := range weeks {
		m := first.AddDate(0, 0, 7*w).Month()
		if m != lastMonth {
			b.WriteString(m.String()[:1])
			lastMonth = m
		} else {
			b.WriteString(" ")
		}
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for d, row := range grid {
		fmt.Fprintf(&b, "%-3s %s\n", time.Weekday((d + 1) % 7).String()[:3], strings.Join(row, " "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Legend lists the projects that received at least one slot.
func (rd *Renderer) Legend(s *model.Schedule) string {
	col := colors(s)
	var names []string
	seen := make(map[string]bool)
	for _, sl := range s.Slots {
		if sl.Assigned() && !seen[sl.Project] {
			seen[sl.Project] = true
			names = append(names, sl.Project)
		}
	}
	slices.Sort(names)
	var b strings.Builder
	b.WriteString("Legend:\n")
	for _, n := range names {
		fmt.Fprintf(&b, "  %s %s\n", rd.block(col[n], fullBlock+fullBlock), n)
	}
	fmt.Fprintf(&b, "  %s Unassigned\n", idleBlock+idleBlock)
	return b.String()
}

// Statistics summarizes when work runs out and how each project is paced.
func (rd *Renderer) Statistics(s *model.Schedule) string {
	title := rd.style().Bold(true)
	muted := rd.style().Foreground(mutedColor)
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", rule, title.Render(fmt.Sprintf("PROJECT STATISTICS (%s)", s.Method)), rule)

	if last, ok := s.LastWorkDate(); ok {
		fmt.Fprintf(&b, "Work scheduled until: %s (%s)\n", last.Format(model.DateLayout), last.Weekday())
		if days := model.DaysBetween(s.Start, last); days > 0 {
			b.WriteString(muted.Render(fmt.Sprintf("   (%d days of scheduled work)", days)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Days per week by project:\n")
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")
	stats := slices.Clone(s.Stats)
	slices.SortStableFunc(stats, func(a, b model.ProjectStats) int {
		switch {
		case a.DaysPerWeek > b.DaysPerWeek:
			return -1
		case a.DaysPerWeek < b.DaysPerWeek:
			return 1
		}
		return 0
	})
	for _, st := range stats {
		mark := rd.style().Foreground(warningColor).Render("○")
		if st.FullyScheduled() {
			mark = rd.style().Foreground(successColor).Render("✓")
		}
		fmt.Fprintf(&b, "  %s %-20s %.1f days/week  (%d slots) %s\n",
			rd.block(st.Color, fullBlock+fullBlock), st.Name, st.DaysPerWeek, st.AssignedSlots, mark)
		if !st.LastScheduled.IsZero() {
			b.WriteString(muted.Render("      Last scheduled: " + st.LastScheduled.Format(model.DateLayout)))
			b.WriteString("\n")
		}
	}
	if d := s.UnscheduledDays(); d > 0 {
		b.WriteString("\n")
		b.WriteString(rd.style().Foreground(warningColor).Render(
			fmt.Sprintf("%g days of work could not be scheduled within the horizon", d)))
		b.WriteString("\n")
	}
	b.WriteString("\nLegend: ✓ = fully scheduled, ○ = partially scheduled")
	return b.String()
}

// Availability draws the idle share of every week as a bar.
func (rd *Renderer) Availability(s *model.Schedule) string {
	const width = 20
	var b strings.Builder
	b.WriteString("Weekly availability:\n")
	for _, w := range analysis.WeeklyAvailability(s) {
		filled := int(w.PercentAvailable/100*width + 0.5)
		bar := rd.style().Foreground(successColor).Render(strings.Repeat(fullBlock, filled)) +
			strings.Repeat(idleBlock, width-filled)
		fmt.Fprintf(&b, "  W%02d %s %s %5.1f%%\n", w.Week+1, w.Start.Format(model.DateLayout), bar, w.PercentAvailable)
	}
	months := analysis.MonthlyUnassigned(s, true)
	if len(months) > 0 {
		b.WriteString("\nUnassigned days per month:\n")
		for _, m := range months {
			fmt.Fprintf(&b, "  %-15s %5.1f\n", m.Label(), m.UnassignedDays)
		}
	}
	b.WriteString(rd.allocation(s))
	return strings.TrimRight(b.String(), "\n")
}

// allocation draws each project's smoothed weekly share as a sparkline,
// followed by its average share over the horizon.
func (rd *Renderer) allocation(s *model.Schedule) string {
	rows := analysis.WeeklyAllocation(s)
	if len(rows) == 0 {
		return ""
	}
	colors := colors(s)
	var b strings.Builder
	fmt.Fprintf(&b, "\nWeekly allocation (%d-week trailing average):\n", analysis.SmoothingWindow)
	for len(rows) > 0 {
		name := rows[0].Project
		n := 1
		for n < len(rows) && rows[n].Project == name {
			n++
		}
		smooth := make([]float64, n)
		total := 0.0
		for i, r := range rows[:n] {
			smooth[i] = r.SmoothedPercent
			total += r.Percent
		}
		fmt.Fprintf(&b, "  %-20s %s %5.1f%%\n", name, rd.block(colors[name], sparkline(smooth)), total/float64(n))
		rows = rows[n:]
	}
	return b.String()
}

// sparkline maps percentages to eight block heights.
func sparkline(values []float64) string {
	out := make([]rune, len(values))
	for i, v := range values {
		level := int(v / 100 * float64(len(sparkLevels)))
		out[i] = sparkLevels[max(0, min(len(sparkLevels)-1, level))]
	}
	return string(out)
}

// Compare places the statistics of several runs side by side.
func (rd *Renderer) Compare(schedules ...*model.Schedule) string {
	box := rd.style().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)
	blocks := make([]string, 0, len(schedules))
	for _, s := range schedules {
		last := "-"
		if d, ok := s.LastWorkDate(); ok {
			last = d.Format(model.DateLayout)
		}
		coverage := analysis.CoverageSeries(analysis.WeeklyAvailability(s))
		peak := "-"
		if w, v := analysis.PeakWeek(coverage); w >= 0 {
			peak = fmt.Sprintf("W%02d %.0f%%", w+1, v)
		}
		body := fmt.Sprintf("%s\nassigned days:    %g\nunscheduled days: %g\nwork until:       %s\nutilization:      %.0f%%\ncoverage:         %s\npeak week:        %s",
			rd.style().Bold(true).Render(string(s.Method)),
			float64(s.AssignedSlots())/2, s.UnscheduledDays(), last, analysis.Utilization(s)*100,
			sparkline(coverage), peak)
		blocks = append(blocks, box.Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}
