//go:build !no_containers

package test

import (
	"context"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/slotplan/core/metrics"
	"github.com/kilianp07/slotplan/infra/metrics"
	"github.com/kilianp07/slotplan/test/util"
)

func TestInfluxSinkWritesRuns(t *testing.T) {
	requireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	in, cleanup, err := util.StartInfluxDB(ctx)
	if err != nil {
		t.Fatalf("start influxdb: %v", err)
	}
	defer cleanup()

	sink := metrics.NewInfluxSink(in.URL, in.Token, in.Org, in.Bucket)
	defer sink.Close()

	now := time.Now().UTC()
	sum := coremetrics.RunSummary{
		RunID:         "run-42",
		Method:        "frontload",
		Today:         now,
		Weeks:         8,
		GeneratedAt:   now,
		AssignedSlots: 52,
		Utilization:   0.65,
		Projects: []coremetrics.ProjectSummary{
			{Name: "alpha", AssignedSlots: 40, DaysPerWeek: 2.5, Status: "complete"},
			{Name: "beta", AssignedSlots: 12, RemainingSlots: 4, DaysPerWeek: 0.75, Status: "partial"},
		},
	}
	require.NoError(t, sink.RecordSchedule(sum))

	client := influxdb2.NewClient(in.URL, in.Token)
	defer client.Close()
	query := `from(bucket: "` + in.Bucket + `")
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == "schedule_run" and r._field == "assigned_slots")
  |> filter(fn: (r) => r.run_id == "run-42")`

	res, err := client.QueryAPI(in.Org).Query(ctx, query)
	require.NoError(t, err)
	var rows int
	for res.Next() {
		rows++
		assert.Equal(t, "frontload", res.Record().ValueByKey("method"))
		assert.EqualValues(t, 52, res.Record().Value())
	}
	require.NoError(t, res.Err())
	assert.Equal(t, 1, rows)

	projects := `from(bucket: "` + in.Bucket + `")
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == "project_allocation" and r._field == "assigned_slots")
  |> group()`
	res, err = client.QueryAPI(in.Org).Query(ctx, projects)
	require.NoError(t, err)
	names := map[string]bool{}
	for res.Next() {
		if p, ok := res.Record().ValueByKey("project").(string); ok {
			names[p] = true
		}
	}
	require.NoError(t, res.Err())
	assert.Equal(t, map[string]bool{"alpha": true, "beta": true}, names)
}
