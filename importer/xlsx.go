package importer

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/slotplan/core/model"
)

// ReadXLSX parses an Excel workbook with the same mapping as Read. Date
// cells may hold text in the mapping's layout or Excel date serials.
func ReadXLSX(r io.Reader, m Mapping) ([]Record, error) {
	m.SetDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := m.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRows(rows, m, parseCellDate)
}

// parseCellDate accepts a date in layout or an Excel 1900 date serial.
func parseCellDate(s, layout string) (time.Time, error) {
	t, err := parseDate(s, layout)
	if err == nil {
		return t, nil
	}
	serial, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return time.Time{}, err
	}
	t, ferr = excelize.ExcelDateToTime(serial, false)
	if ferr != nil {
		return time.Time{}, ferr
	}
	return model.Day(t), nil
}
