package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/slotplan/core/metrics"
)

func summary(method string, projects ...coremetrics.ProjectSummary) coremetrics.RunSummary {
	return coremetrics.RunSummary{Method: method, UnscheduledDays: 2.5, Utilization: 0.8, Projects: projects}
}

func TestPromSink_RecordSchedule(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromOptions{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordSchedule(summary("paced",
		coremetrics.ProjectSummary{Name: "a", AssignedSlots: 12, DaysPerWeek: 1.5},
		coremetrics.ProjectSummary{Name: "b", AssignedSlots: 4, RemainingSlots: 2},
	)); err != nil {
		t.Fatalf("record: %v", err)
	}
	// A later run without b must drop its series.
	if err := sink.RecordSchedule(summary("paced",
		coremetrics.ProjectSummary{Name: "a", AssignedSlots: 10},
	)); err != nil {
		t.Fatalf("record: %v", err)
	}

	expected := `
# HELP slotplan_project_assigned_slots Half-day slots assigned to a project in the latest run
# TYPE slotplan_project_assigned_slots gauge
slotplan_project_assigned_slots{method="paced",project="a"} 10
`
	if err := testutil.CollectAndCompare(sink.assigned, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected assigned gauge: %v", err)
	}
	if v := testutil.ToFloat64(sink.runs.WithLabelValues("paced")); v != 2 {
		t.Fatalf("expected 2 runs got %v", v)
	}
	if v := testutil.ToFloat64(sink.unscheduled.WithLabelValues("paced")); v != 2.5 {
		t.Fatalf("unexpected unscheduled days %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s1, err := NewPromSinkWithRegistry(PromOptions{}, reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	s2, err := NewPromSinkWithRegistry(PromOptions{}, reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = s1.RecordPlanFailure(coremetrics.PlanFailure{})
	_ = s2.RecordPlanFailure(coremetrics.PlanFailure{})
	if v := testutil.ToFloat64(s1.failures); v != 2 {
		t.Fatalf("expected shared counter at 2, got %v", v)
	}
}

func TestPromSink_Pushgateway(t *testing.T) {
	var pushes atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewPromSinkWithRegistry(PromOptions{PushURL: srv.URL, Job: "planner"}, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordSchedule(summary("frontload")); err != nil {
		t.Fatalf("record: %v", err)
	}
	if pushes.Load() != 1 {
		t.Fatalf("expected one push, got %d", pushes.Load())
	}
	if p, _ := path.Load().(string); p != "/metrics/job/planner" {
		t.Fatalf("unexpected push path %q", p)
	}
}
