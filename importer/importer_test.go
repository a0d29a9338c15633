package importer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const export = `Project Name,End Date,Remaining Days,Start Date,Renewal Days,Priority,Owner
Alpha,2025-03-31,4.5,,,,ann
,2025-04-01,2,,,,
Beta,2025-06-30,10,2025-02-03,5,2,bob
`

func TestReadDefaultMapping(t *testing.T) {
	recs, err := Read(strings.NewReader(export), Mapping{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	a := recs[0]
	assert.Equal(t, "Alpha", a.Name)
	assert.True(t, a.EndDate.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 4.5, a.RemainingDays, 1e-9)
	assert.Nil(t, a.StartDate)
	assert.Nil(t, a.RenewalDays)
	assert.Nil(t, a.Priority)

	b := recs[1]
	require.NotNil(t, b.StartDate)
	assert.Equal(t, "2025-02-03", b.StartDate.Format("2006-01-02"))
	require.NotNil(t, b.RenewalDays)
	assert.InDelta(t, 5.0, *b.RenewalDays, 1e-9)
	require.NotNil(t, b.Priority)
	assert.Equal(t, 2, *b.Priority)
}

func TestReadCustomMapping(t *testing.T) {
	data := "title\nProjet;Echeance;Jours\nGamma;31/03/2025;3\n"
	m := Mapping{
		Columns:    Columns{Name: "Projet", EndDate: "Echeance", RemainingDays: "Jours"},
		HeaderRow:  2,
		DateLayout: "02/01/2006",
		Delimiter:  ";",
	}
	recs, err := Read(strings.NewReader(data), m)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Gamma", recs[0].Name)
	assert.Equal(t, time.March, recs[0].EndDate.Month())
}

// workbook saves rows to a new workbook in a temp dir, on sheet when set.
func workbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if sheet != "" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "projects.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := workbook(t, "", [][]any{
		{"Project Name", "End Date", "Remaining Days", "Start Date", "Renewal Days", "Priority"},
		{"Alpha", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 4.5},
		{nil, "2025-04-01", 2},
		{"Beta", "2025-06-30", 10, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), 5, 2},
	})
	recs, err := ReadFile(path, Mapping{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	a := recs[0]
	assert.Equal(t, "Alpha", a.Name)
	assert.Equal(t, "2025-03-31", a.EndDate.Format("2006-01-02"))
	assert.InDelta(t, 4.5, a.RemainingDays, 1e-9)
	assert.Nil(t, a.StartDate)

	b := recs[1]
	assert.Equal(t, "2025-06-30", b.EndDate.Format("2006-01-02"))
	require.NotNil(t, b.StartDate)
	assert.Equal(t, "2025-02-03", b.StartDate.Format("2006-01-02"))
	require.NotNil(t, b.Priority)
	assert.Equal(t, 2, *b.Priority)
}

func TestReadXLSXMapping(t *testing.T) {
	path := workbook(t, "Pipeline", [][]any{
		{"exported 2025-01-06"},
		{"Projet", "Echeance", "Jours"},
		{"Gamma", "31/03/2025", 3},
	})
	m := Mapping{
		Columns:    Columns{Name: "Projet", EndDate: "Echeance", RemainingDays: "Jours"},
		HeaderRow:  2,
		DateLayout: "02/01/2006",
		Sheet:      "Pipeline",
	}
	recs, err := ReadFile(path, m)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Gamma", recs[0].Name)
	assert.Equal(t, time.March, recs[0].EndDate.Month())

	m.Sheet = "Missing"
	_, err = ReadFile(path, m)
	require.Error(t, err)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader("Project Name,Remaining Days\nA,1\n"), Mapping{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected missing column, got %v", err)
	}

	_, err = Read(strings.NewReader("Project Name,End Date,Remaining Days\nA,soon,1\n"), Mapping{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 (A)")

	_, err = Read(strings.NewReader("Project Name,End Date,Remaining Days\nA,2025-01-01,lots\n"), Mapping{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remaining days")
}

func records(t *testing.T) []Record {
	t.Helper()
	recs, err := Read(strings.NewReader(export), Mapping{})
	require.NoError(t, err)
	return recs
}

func TestMergeYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	existing := `planner:
  weeks: 12
projects:
  # kept
  - name: Alpha
    end_date: "2025-03-31"
    remaining_days: 3
    color: "#ff0000"
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	res, err := Merge(path, records(t))
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Updated: 1}, res)

	var got struct {
		Planner  map[string]any   `yaml:"planner"`
		Projects []map[string]any `yaml:"projects"`
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(b, &got))
	require.Len(t, got.Projects, 2)
	assert.Equal(t, 12, got.Planner["weeks"])
	assert.Equal(t, "Alpha", got.Projects[0]["name"])
	assert.Equal(t, 4.5, got.Projects[0]["remaining_days"])
	assert.Equal(t, "#ff0000", got.Projects[0]["color"])
	assert.Equal(t, "Beta", got.Projects[1]["name"])
	assert.Equal(t, "2025-02-03", got.Projects[1]["start_date"])
	assert.Equal(t, 2, got.Projects[1]["priority"])

	res, err = Merge(path, records(t))
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 2}, res)
}

func TestMergeJSONCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	res, err := Merge(path, records(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, "2 added, 0 updated, 0 unchanged", res.String())

	var got struct {
		Projects []map[string]any `json:"projects"`
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got.Projects, 2)
	assert.Equal(t, "2025-06-30", got.Projects[1]["end_date"])
	assert.NotContains(t, got.Projects[0], "priority")

	recs := records(t)
	recs[1].RemainingDays = 8
	res, err = Merge(path, recs)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1, Unchanged: 1}, res)
}

func TestMergeUnsupported(t *testing.T) {
	_, err := Merge(filepath.Join(t.TempDir(), "p.toml"), nil)
	require.Error(t, err)
}
