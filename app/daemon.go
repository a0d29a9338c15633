package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/kilianp07/slotplan/config"
	coremetrics "github.com/kilianp07/slotplan/core/metrics"
	"github.com/kilianp07/slotplan/infra/metrics"
)

// replanner is implemented by sinks that accept remote replan commands.
type replanner interface {
	SetReplanHandler(fn func(reason string))
}

// Serve re-plans at startup, on the cron schedule, when the planner file
// changes and on remote request, until ctx is canceled. Bursts of triggers
// collapse into a single pending run and runs are spaced by the limiter.
func (s *Service) Serve(ctx context.Context, cfg config.ServeConfig) error {
	triggers := make(chan string, 1)
	trigger := func(reason string) {
		select {
		case triggers <- reason:
		default:
			s.log.Debugf("replan already pending, dropping %s trigger", reason)
		}
	}

	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)), cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(cfg.Cron, func() { trigger("cron") }); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	if cfg.Watch {
		go func() {
			if err := s.watch(ctx, trigger); err != nil {
				s.log.Errorf("watch %s: %v", s.path, err)
			}
		}()
	}
	eachSink(s.sink, func(sink coremetrics.ScheduleSink) {
		if r, ok := sink.(replanner); ok {
			r.SetReplanHandler(trigger)
		}
	})
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.MetricsAddr, prometheus.DefaultGatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	limiter := rate.NewLimiter(rate.Every(cfg.MinInterval), cfg.Burst)
	s.log.Infof("serving %s (cron %q)", s.path, cfg.Cron)
	trigger("startup")
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-triggers:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			if _, err := s.Replan(ctx, reason); err != nil {
				s.log.Errorf("replan (%s): %v", reason, err)
			}
		}
	}
}

// watch fires trigger when the planner file is written or replaced. The
// directory is watched so that editors saving through a rename are seen.
func (s *Service) watch(ctx context.Context, trigger func(string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	dir, file := filepath.Split(filepath.Clean(s.path))
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) == file && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				trigger("file")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warnf("watch error: %v", err)
		}
	}
}
