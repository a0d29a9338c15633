package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/slotplan/core/metrics"
)

// PromOptions configures a PromSink.
type PromOptions struct {
	// PushURL sends every run to a Pushgateway when set. Planning runs are
	// short-lived so the CLI cannot rely on being scraped.
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink exposes the latest run of each method as Prometheus gauges.
type PromSink struct {
	runs        *prometheus.CounterVec
	failures    prometheus.Counter
	assigned    *prometheus.GaugeVec
	remaining   *prometheus.GaugeVec
	daysPerWeek *prometheus.GaugeVec
	unscheduled *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	pusher      *push.Pusher
}

// NewPromSink registers planner metrics on the default Prometheus registerer.
func NewPromSink(opts PromOptions) (*PromSink, error) {
	return NewPromSinkWithRegistry(opts, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(opts PromOptions, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slotplan_runs_total",
		Help: "Total number of planning runs",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slotplan_plan_failures_total",
		Help: "Planning runs rejected before scheduling",
	})); err != nil {
		return nil, err
	}
	if s.assigned, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotplan_project_assigned_slots",
		Help: "Half-day slots assigned to a project in the latest run",
	}, []string{"method", "project"})); err != nil {
		return nil, err
	}
	if s.remaining, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotplan_project_remaining_slots",
		Help: "Half-day slots of a project left outside the horizon",
	}, []string{"method", "project"})); err != nil {
		return nil, err
	}
	if s.daysPerWeek, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotplan_project_days_per_week",
		Help: "Average days per week given to a project",
	}, []string{"method", "project"})); err != nil {
		return nil, err
	}
	if s.unscheduled, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotplan_unscheduled_days",
		Help: "Days of work that did not fit in the horizon",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotplan_utilization_ratio",
		Help: "Share of horizon slots carrying a project",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if opts.PushURL != "" {
		job := opts.Job
		if job == "" {
			job = "slotplan"
		}
		s.pusher = push.New(opts.PushURL, job).
			Collector(s.runs).Collector(s.failures).
			Collector(s.assigned).Collector(s.remaining).Collector(s.daysPerWeek).
			Collector(s.unscheduled).Collector(s.utilization)
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSchedule replaces the gauges of sum.Method with the new run.
func (s *PromSink) RecordSchedule(sum coremetrics.RunSummary) error {
	s.runs.WithLabelValues(sum.Method).Inc()
	byMethod := prometheus.Labels{"method": sum.Method}
	s.assigned.DeletePartialMatch(byMethod)
	s.remaining.DeletePartialMatch(byMethod)
	s.daysPerWeek.DeletePartialMatch(byMethod)
	for _, p := range sum.Projects {
		s.assigned.WithLabelValues(sum.Method, p.Name).Set(float64(p.AssignedSlots))
		s.remaining.WithLabelValues(sum.Method, p.Name).Set(float64(p.RemainingSlots))
		s.daysPerWeek.WithLabelValues(sum.Method, p.Name).Set(p.DaysPerWeek)
	}
	s.unscheduled.WithLabelValues(sum.Method).Set(sum.UnscheduledDays)
	s.utilization.WithLabelValues(sum.Method).Set(sum.Utilization)
	return s.push()
}

// RecordPlanFailure counts a rejected run.
func (s *PromSink) RecordPlanFailure(coremetrics.PlanFailure) error {
	s.failures.Inc()
	return s.push()
}

func (s *PromSink) push() error {
	if s.pusher == nil {
		return nil
	}
	if err := s.pusher.Push(); err != nil {
		return fmt.Errorf("pushgateway: %w", err)
	}
	return nil
}
