// Package importer reads project records from spreadsheet exports and merges
// them into a project file.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/slotplan/core/model"
)

// Columns maps record fields to spreadsheet header names.
type Columns struct {
	Name          string `koanf:"name" json:"name"`
	EndDate       string `koanf:"end_date" json:"end_date"`
	RemainingDays string `koanf:"remaining_days" json:"remaining_days"`
	StartDate     string `koanf:"start_date" json:"start_date"`
	RenewalDays   string `koanf:"renewal_days" json:"renewal_days"`
	Priority      string `koanf:"priority" json:"priority"`
}

// Mapping describes how to read a spreadsheet export.
type Mapping struct {
	Columns Columns `koanf:"columns" json:"columns"`
	// HeaderRow is the 1-based row holding the column names.
	HeaderRow int `koanf:"header_row" json:"header_row"`
	// DateLayout is the Go time layout of date cells.
	DateLayout string `koanf:"date_layout" json:"date_layout"`
	// Delimiter is the field separator, "," when empty.
	Delimiter string `koanf:"delimiter" json:"delimiter"`
	// Sheet is the workbook sheet to read, the first one when empty.
	Sheet string `koanf:"sheet" json:"sheet"`
}

// SetDefaults fills unset columns and options.
func (m *Mapping) SetDefaults() {
	def := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	def(&m.Columns.Name, "Project Name")
	def(&m.Columns.EndDate, "End Date")
	def(&m.Columns.RemainingDays, "Remaining Days")
	def(&m.Columns.StartDate, "Start Date")
	def(&m.Columns.RenewalDays, "Renewal Days")
	def(&m.Columns.Priority, "Priority")
	def(&m.DateLayout, model.DateLayout)
	def(&m.Delimiter, ",")
	if m.HeaderRow == 0 {
		m.HeaderRow = 1
	}
}

// Validate checks the mapping options.
func (m Mapping) Validate() error {
	if m.HeaderRow < 1 {
		return fmt.Errorf("header_row must be at least 1")
	}
	if len([]rune(m.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	return nil
}

// DefaultMapping returns the mapping used when none is configured.
func DefaultMapping() Mapping {
	var m Mapping
	m.SetDefaults()
	return m
}

// Record is one imported project. Optional cells left blank are nil.
type Record struct {
	Name          string
	EndDate       time.Time
	RemainingDays float64
	StartDate     *time.Time
	RenewalDays   *float64
	Priority      *int
}

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("required column not found")

// ReadFile reads records from the CSV or Excel workbook at path, chosen by
// extension.
func ReadFile(path string, m Mapping) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, m)
	default:
		return Read(f, m)
	}
}

// Read parses a CSV export. Rows without a project name are skipped.
func Read(r io.Reader, m Mapping) ([]Record, error) {
	m.SetDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	cr := csv.NewReader(r)
	cr.Comma = []rune(m.Delimiter)[0]
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows, m, parseDate)
}

// parseRows maps the rows below the header to records. date parses date
// cells with the mapping's layout.
func parseRows(rows [][]string, m Mapping, date func(s, layout string) (time.Time, error)) ([]Record, error) {
	var err error
	if len(rows) < m.HeaderRow {
		return nil, fmt.Errorf("header row %d not found", m.HeaderRow)
	}
	header := rows[m.HeaderRow-1]
	index := func(name string, required bool) (int, error) {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i, nil
			}
		}
		if required {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return -1, nil
	}
	var cols struct{ name, end, remaining, start, renewal, priority int }
	for _, c := range []struct {
		dst      *int
		name     string
		required bool
	}{
		{&cols.name, m.Columns.Name, true},
		{&cols.end, m.Columns.EndDate, true},
		{&cols.remaining, m.Columns.RemainingDays, true},
		{&cols.start, m.Columns.StartDate, false},
		{&cols.renewal, m.Columns.RenewalDays, false},
		{&cols.priority, m.Columns.Priority, false},
	} {
		if *c.dst, err = index(c.name, c.required); err != nil {
			return nil, err
		}
	}

	var out []Record
	for n, row := range rows[m.HeaderRow:] {
		line := m.HeaderRow + n + 1
		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		name := cell(cols.name)
		if name == "" {
			continue
		}
		rec := Record{Name: name}
		if rec.EndDate, err = date(cell(cols.end), m.DateLayout); err != nil {
			return nil, fmt.Errorf("row %d (%s): end date: %w", line, name, err)
		}
		if v := cell(cols.remaining); v != "" {
			if rec.RemainingDays, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("row %d (%s): remaining days: %w", line, name, err)
			}
		}
		if v := cell(cols.start); v != "" {
			d, err := date(v, m.DateLayout)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): start date: %w", line, name, err)
			}
			rec.StartDate = &d
		}
		if v := cell(cols.renewal); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): renewal days: %w", line, name, err)
			}
			rec.RenewalDays = &f
		}
		if v := cell(cols.priority); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): priority: %w", line, name, err)
			}
			rec.Priority = &p
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseDate(s, layout string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("is empty")
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return model.Day(t), nil
}

// entry renders r as a project file item.
func (r Record) entry() projectEntry {
	e := projectEntry{
		Name:          r.Name,
		EndDate:       r.EndDate.Format(model.DateLayout),
		RemainingDays: r.RemainingDays,
		RenewalDays:   r.RenewalDays,
		Priority:      r.Priority,
	}
	if r.StartDate != nil {
		e.StartDate = r.StartDate.Format(model.DateLayout)
	}
	return e
}
