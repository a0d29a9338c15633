// Package export writes schedules in machine readable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/kilianp07/slotplan/core/analysis"
	"github.com/kilianp07/slotplan/core/model"
)

type slotDoc struct {
	Index   int    `json:"index"`
	Date    string `json:"date"`
	Half    string `json:"half"`
	Project string `json:"project,omitempty"`
}

type statDoc struct {
	Name           string  `json:"name"`
	Parent         string  `json:"parent,omitempty"`
	Priority       int     `json:"priority"`
	RequestedSlots int     `json:"requested_slots"`
	AssignedSlots  int     `json:"assigned_slots"`
	RemainingSlots int     `json:"remaining_slots"`
	DaysPerWeek    float64 `json:"days_per_week"`
	FirstScheduled string  `json:"first_scheduled,omitempty"`
	LastScheduled  string  `json:"last_scheduled,omitempty"`
	Status         string  `json:"status"`
}

type allocationDoc struct {
	Week            int     `json:"week"`
	WeekEnd         string  `json:"week_end"`
	Project         string  `json:"project"`
	Percent         float64 `json:"percent"`
	SmoothedPercent float64 `json:"smoothed_percent"`
}

type scheduleDoc struct {
	Method          model.Method    `json:"method"`
	Start           string          `json:"start"`
	End             string          `json:"end"`
	Weeks           int             `json:"weeks"`
	UnscheduledDays float64         `json:"unscheduled_days"`
	Slots           []slotDoc       `json:"slots"`
	Stats           []statDoc       `json:"stats"`
	Allocation      []allocationDoc `json:"allocation"`
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

// WriteJSON writes the slot sequence, statistics and weekly allocation of s
// to w.
func WriteJSON(w io.Writer, s *model.Schedule) error {
	return encode(w, document(s))
}

// WriteJSONList writes the documents of several schedules as one array.
func WriteJSONList(w io.Writer, ss ...*model.Schedule) error {
	docs := make([]scheduleDoc, 0, len(ss))
	for _, s := range ss {
		docs = append(docs, document(s))
	}
	return encode(w, docs)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func document(s *model.Schedule) scheduleDoc {
	rows := analysis.WeeklyAllocation(s)
	doc := scheduleDoc{
		Method:          s.Method,
		Start:           date(s.Start),
		End:             date(s.End),
		Weeks:           s.Weeks,
		UnscheduledDays: s.UnscheduledDays(),
		Slots:           make([]slotDoc, 0, len(s.Slots)),
		Stats:           make([]statDoc, 0, len(s.Stats)),
		Allocation:      make([]allocationDoc, 0, len(rows)),
	}
	for _, sl := range s.Slots {
		doc.Slots = append(doc.Slots, slotDoc{
			Index:   sl.Index,
			Date:    date(sl.Date),
			Half:    sl.Half.String(),
			Project: sl.Project,
		})
	}
	for _, st := range s.Stats {
		doc.Stats = append(doc.Stats, statDoc{
			Name:           st.Name,
			Parent:         st.ParentName,
			Priority:       st.Priority,
			RequestedSlots: st.RequestedSlots,
			AssignedSlots:  st.AssignedSlots,
			RemainingSlots: st.RemainingSlots,
			DaysPerWeek:    st.DaysPerWeek,
			FirstScheduled: date(st.FirstScheduled),
			LastScheduled:  date(st.LastScheduled),
			Status:         st.Status.String(),
		})
	}
	for _, r := range rows {
		doc.Allocation = append(doc.Allocation, allocationDoc{
			Week:            r.Week + 1,
			WeekEnd:         date(r.End),
			Project:         r.Project,
			Percent:         round2(r.Percent),
			SmoothedPercent: round2(r.SmoothedPercent),
		})
	}
	return doc
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// WriteCSV writes one row per slot. Idle slots have an empty project.
func WriteCSV(w io.Writer, s *model.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "date", "weekday", "half", "project"}); err != nil {
		return err
	}
	for _, sl := range s.Slots {
		rec := []string{
			strconv.Itoa(sl.Index),
			date(sl.Date),
			sl.Date.Weekday().String(),
			sl.Half.String(),
			sl.Project,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatsCSV writes one row per project.
func WriteStatsCSV(w io.Writer, s *model.Schedule) error {
	cw := csv.NewWriter(w)
	header := []string{"project", "parent", "priority", "requested_days", "assigned_days",
		"remaining_days", "days_per_week", "first_scheduled", "last_scheduled", "status"}
	if err := cw.Write(header); err != nil {
		return err
	}
	days := func(slots int) string { return strconv.FormatFloat(float64(slots)/2, 'f', -1, 64) }
	for _, st := range s.Stats {
		rec := []string{
			st.Name,
			st.ParentName,
			strconv.Itoa(st.Priority),
			days(st.RequestedSlots),
			days(st.AssignedSlots),
			days(st.RemainingSlots),
			strconv.FormatFloat(st.DaysPerWeek, 'f', 2, 64),
			date(st.FirstScheduled),
			date(st.LastScheduled),
			st.Status.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAllocationCSV writes each project's weekly share of slots and its
// trailing average, one row per project and week.
func WriteAllocationCSV(w io.Writer, s *model.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"week", "week_end", "project", "percent", "smoothed_percent"}); err != nil {
		return err
	}
	pct := func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
	for _, r := range analysis.WeeklyAllocation(s) {
		rec := []string{strconv.Itoa(r.Week + 1), date(r.End), r.Project, pct(r.Percent), pct(r.SmoothedPercent)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
