package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/slotplan/core/metrics"
	"github.com/kilianp07/slotplan/infra/logger"
)

// InfluxSink writes planning runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.ScheduleSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSchedule writes one schedule_run point and one project_allocation
// point per project in a single request.
func (s *InfluxSink) RecordSchedule(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, schedulePoints(sum)...)
}

func schedulePoints(sum coremetrics.RunSummary) []*write.Point {
	pts := make([]*write.Point, 0, len(sum.Projects)+1)
	pts = append(pts, write.NewPointWithMeasurement("schedule_run").
		AddTag("method", sum.Method).
		AddTag("run_id", sum.RunID).
		AddField("weeks", sum.Weeks).
		AddField("assigned_slots", sum.AssignedSlots).
		AddField("unassigned_slots", sum.UnassignedSlots).
		AddField("unscheduled_days", round3(sum.UnscheduledDays)).
		AddField("utilization", round3(sum.Utilization)).
		SetTime(sum.GeneratedAt))
	for _, p := range sum.Projects {
		pts = append(pts, write.NewPointWithMeasurement("project_allocation").
			AddTag("method", sum.Method).
			AddTag("project", p.Name).
			AddTag("run_id", sum.RunID).
			AddTag("status", p.Status).
			AddField("assigned_slots", p.AssignedSlots).
			AddField("remaining_slots", p.RemainingSlots).
			AddField("days_per_week", round3(p.DaysPerWeek)).
			AddField("priority", p.Priority).
			SetTime(sum.GeneratedAt))
	}
	return pts
}

// RecordPlanFailure records a rejected run.
func (s *InfluxSink) RecordPlanFailure(f coremetrics.PlanFailure) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_failure").
		AddField("reason", f.Reason).
		SetTime(f.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
