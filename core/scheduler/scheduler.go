package scheduler

import (
	"time"

	"github.com/kilianp07/slotplan/core/calendar"
	"github.com/kilianp07/slotplan/core/logger"
	"github.com/kilianp07/slotplan/core/model"
)

// Scheduler turns a project list into a Schedule. It keeps no state between
// runs and is safe to reuse.
type Scheduler struct {
	cfg     Config
	palette model.Palette
	now     func() time.Time
	logger  logger.Logger
}

// NewScheduler validates cfg and returns a scheduler using the default
// palette and the wall clock.
func NewScheduler(cfg Config, log logger.Logger) (*Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{cfg: cfg, palette: model.DefaultPalette, now: time.Now, logger: logger.OrNop(log)}, nil
}

// SetPalette replaces the colors handed to projects without one.
func (s *Scheduler) SetPalette(p model.Palette) {
	if len(p) > 0 {
		s.palette = p
	}
}

// SetClock overrides the clock used when no reference date is configured.
func (s *Scheduler) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Today returns the reference date of the next run.
func (s *Scheduler) Today() time.Time { return s.cfg.ReferenceDate(s.now()) }

// Plan schedules projects with the configured method.
func (s *Scheduler) Plan(projects []model.Project) (*model.Schedule, error) {
	m, err := ParseMethod(s.cfg.Method)
	if err != nil {
		return nil, err
	}
	return s.PlanMethod(projects, m)
}

// PlanMethod schedules projects with method m. Invalid input aborts with a
// *ConfigurationError before any slot is assigned.
func (s *Scheduler) PlanMethod(projects []model.Project, m model.Method) (*model.Schedule, error) {
	if !m.Valid() {
		return nil, &ConfigurationError{Field: "method", Value: string(m), Reason: "must be paced or frontload"}
	}
	today := s.Today()
	kept := FilterByProbability(projects, s.cfg.MinProbability)
	if dropped := len(projects) - len(kept); dropped > 0 {
		s.logger.Debugf("dropped %d projects below probability %.2f", dropped, s.cfg.MinProbability)
	}
	reg, err := NewRegistry(kept, today, model.NewColorAllocator(s.palette))
	if err != nil {
		return nil, err
	}
	cal := calendar.New(today, s.cfg.Weeks)
	res := allocate(reg, cal, m)

	sched := &model.Schedule{
		Method:   m,
		Start:    cal.Start(),
		End:      cal.End(),
		Weeks:    cal.Weeks(),
		Projects: res.projects,
		Slots:    res.slots,
		Stats:    buildStats(res.projects, res.slots, cal.Weeks()),
	}
	s.logger.Debugw("schedule computed", map[string]any{
		"method":           string(m),
		"weeks":            cal.Weeks(),
		"projects":         len(res.projects),
		"renewals":         res.renewals,
		"assigned_slots":   sched.AssignedSlots(),
		"unscheduled_days": sched.UnscheduledDays(),
	})
	if m == model.MethodPaced {
		for _, g := range GapExceptions(sched) {
			s.logger.Debugf("project %s idle for %d days from %s", g.Project, g.Days, g.From.Format(model.DateLayout))
		}
	}
	return sched, nil
}
