// Package app runs the planner: one-shot planning for the CLI and the
// re-planning daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/slotplan/config"
	coremetrics "github.com/kilianp07/slotplan/core/metrics"
	"github.com/kilianp07/slotplan/core/model"
	"github.com/kilianp07/slotplan/core/scheduler"
	"github.com/kilianp07/slotplan/infra/logger"
	"github.com/kilianp07/slotplan/infra/store"

	// Register the built-in schedule sinks.
	_ "github.com/kilianp07/slotplan/infra/metrics"
	_ "github.com/kilianp07/slotplan/infra/mqtt"
)

// RunStore keeps the history of planning runs.
type RunStore interface {
	Save(ctx context.Context, s *model.Schedule, created time.Time) (string, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

// Run is one computed schedule.
type Run struct {
	ID       string
	Schedule *model.Schedule
	// Saved reports whether the run was written to the store.
	Saved bool
}

// Service plans schedules and reports them to the configured sinks.
type Service struct {
	path  string
	log   logger.Logger
	sink  coremetrics.ScheduleSink
	store RunStore
	keep  int
	now   func() time.Time
	load  func(string) (*config.Config, error)

	mu   sync.Mutex
	last []Run
}

// Option customizes a Service.
type Option func(*Service)

// WithSink replaces the sinks built from the configuration.
func WithSink(s coremetrics.ScheduleSink) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the SQLite store built from the configuration.
func WithStore(st RunStore) Option { return func(svc *Service) { svc.store = st } }

// WithClock sets the time source used for "today" and run timestamps.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// New creates a Service for the planner file at path. The history store is
// opened when the configuration enables it or save is set.
func New(cfg *config.Config, path string, save bool, opts ...Option) (*Service, error) {
	svc := &Service{
		path: path,
		keep: cfg.Store.Keep,
		now:  time.Now,
		load: config.Load,
	}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewScheduleSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sinks: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil && (cfg.Store.Enabled || save) {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			svc.closeSinks()
			return nil, fmt.Errorf("open store: %w", err)
		}
		svc.store = st
	}
	return svc, nil
}

// Plan computes one schedule per method, or the configured method when none
// is given, and records every run.
func (s *Service) Plan(ctx context.Context, cfg *config.Config, methods ...model.Method) ([]Run, error) {
	projects, err := cfg.ProjectList()
	if err != nil {
		return nil, s.fail(err)
	}
	sched, err := scheduler.NewScheduler(cfg.Planner, logger.New("scheduler"))
	if err != nil {
		return nil, s.fail(err)
	}
	sched.SetPalette(cfg.Palette)
	sched.SetClock(s.now)
	if len(methods) == 0 {
		m, err := scheduler.ParseMethod(cfg.Planner.Method)
		if err != nil {
			return nil, s.fail(err)
		}
		methods = []model.Method{m}
	}

	runs := make([]Run, 0, len(methods))
	for _, m := range methods {
		schedule, err := sched.PlanMethod(projects, m)
		if err != nil {
			return nil, s.fail(err)
		}
		run, err := s.record(ctx, schedule)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	s.mu.Lock()
	s.last = runs
	s.mu.Unlock()
	return runs, nil
}

func (s *Service) record(ctx context.Context, schedule *model.Schedule) (Run, error) {
	at := s.now()
	run := Run{ID: uuid.NewString(), Schedule: schedule}
	if s.store != nil {
		id, err := s.store.Save(ctx, schedule, at)
		if err != nil {
			return Run{}, fmt.Errorf("save run: %w", err)
		}
		run.ID, run.Saved = id, true
		if s.keep > 0 {
			if n, err := s.store.Prune(ctx, s.keep); err != nil {
				s.log.Warnf("prune history: %v", err)
			} else if n > 0 {
				s.log.Debugf("pruned %d runs", n)
			}
		}
	}
	if err := s.sink.RecordSchedule(coremetrics.Summarize(schedule, run.ID, at)); err != nil {
		s.log.Warnf("record schedule: %v", err)
	}
	return run, nil
}

// fail reports a rejected run to the sinks and returns err.
func (s *Service) fail(err error) error {
	if rec, ok := s.sink.(coremetrics.FailureRecorder); ok {
		if rerr := rec.RecordPlanFailure(coremetrics.PlanFailure{Reason: err.Error(), Time: s.now()}); rerr != nil {
			s.log.Warnf("record failure: %v", rerr)
		}
	}
	if errors.Is(err, scheduler.ErrConfiguration) {
		s.log.Errorf("plan rejected: %v", err)
	}
	return err
}

// Replan reloads the planner file and plans with its configured method.
func (s *Service) Replan(ctx context.Context, reason string) ([]Run, error) {
	cfg, err := s.load(s.path)
	if err != nil {
		return nil, s.fail(fmt.Errorf("load %s: %w", s.path, err))
	}
	runs, err := s.Plan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		s.log.Infof("replanned (%s): run %s, %d slots assigned, %.1f days unscheduled",
			reason, r.ID, r.Schedule.AssignedSlots(), r.Schedule.UnscheduledDays())
	}
	return runs, nil
}

// Last returns the runs of the latest successful plan.
func (s *Service) Last() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Run(nil), s.last...)
}

// eachSink calls fn for sink and, for fan-out sinks, every member.
func eachSink(sink coremetrics.ScheduleSink, fn func(coremetrics.ScheduleSink)) {
	if m, ok := sink.(*coremetrics.MultiSink); ok {
		for _, s := range m.Sinks {
			eachSink(s, fn)
		}
		return
	}
	fn(sink)
}

func (s *Service) closeSinks() {
	if s.sink == nil {
		return
	}
	eachSink(s.sink, func(sink coremetrics.ScheduleSink) {
		switch c := sink.(type) {
		case interface{ Disconnect() }:
			c.Disconnect()
		case interface{ Close() }:
			c.Close()
		}
	})
}

// Close releases sinks and the history store.
func (s *Service) Close() error {
	s.closeSinks()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
