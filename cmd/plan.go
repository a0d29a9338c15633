package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/slotplan/app"
	"github.com/kilianp07/slotplan/core/model"
	"github.com/kilianp07/slotplan/core/scheduler"
	"github.com/kilianp07/slotplan/infra/logger"
	"github.com/kilianp07/slotplan/pkg/export"
	"github.com/kilianp07/slotplan/pkg/render"
)

const formatsHelp = "tiles, stats, analysis, json, csv, stats-csv or allocation-csv"

var planOpts struct {
	weeks   int
	method  string
	today   string
	compare bool
	format  string
	save    bool
	legend  bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and display a schedule",
	RunE:  plan,
}

func init() {
	f := planCmd.Flags()
	f.IntVarP(&planOpts.weeks, "weeks", "w", scheduler.DefaultWeeks, "planning horizon in weeks")
	f.StringVarP(&planOpts.method, "method", "m", "", "paced or frontload (default from config)")
	f.StringVar(&planOpts.today, "today", "", "reference date YYYY-MM-DD (default today)")
	f.BoolVar(&planOpts.compare, "compare", false, "compute both methods and compare them")
	f.StringVarP(&planOpts.format, "format", "f", "tiles", formatsHelp)
	f.BoolVar(&planOpts.save, "save", false, "save the run to the history store")
	f.BoolVar(&planOpts.legend, "legend", true, "show the color legend with tiles")
	rootCmd.AddCommand(planCmd)
}

func plan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch planOpts.format {
	case "tiles", "stats", "analysis", "json":
	case "csv", "stats-csv", "allocation-csv":
		if planOpts.compare {
			return fmt.Errorf("--compare cannot be combined with format %q", planOpts.format)
		}
	default:
		return fmt.Errorf("unknown format %q", planOpts.format)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("weeks") {
		if planOpts.weeks <= 0 {
			return &scheduler.ConfigurationError{Field: "weeks", Value: planOpts.weeks, Reason: "must be positive"}
		}
		cfg.Planner.Weeks = planOpts.weeks
	}
	if flags.Changed("today") {
		cfg.Planner.Today = planOpts.today
	}
	var methods []model.Method
	switch {
	case planOpts.compare:
		methods = []model.Method{model.MethodPaced, model.MethodFrontload}
	case planOpts.method != "":
		m, err := scheduler.ParseMethod(planOpts.method)
		if err != nil {
			return err
		}
		methods = []model.Method{m}
	}

	svc, err := app.New(cfg, cfgPath, planOpts.save)
	if err != nil {
		return err
	}
	logg := logger.New("plan-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()
	runs, err := svc.Plan(ctx, cfg, methods...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rd := render.New(nil)
	schedules := make([]*model.Schedule, len(runs))
	for i, r := range runs {
		schedules[i] = r.Schedule
	}
	if len(runs) > 1 && planOpts.format == "json" {
		if err := export.WriteJSONList(out, schedules...); err != nil {
			return err
		}
	} else {
		for _, s := range schedules {
			if err := writeSchedule(out, rd, s, planOpts.format, planOpts.legend); err != nil {
				return err
			}
		}
	}
	for _, r := range runs {
		if r.Saved {
			fmt.Fprintf(cmd.ErrOrStderr(), "saved run %s\n", r.ID)
		}
	}
	if len(runs) > 1 && isText(planOpts.format) {
		fmt.Fprintln(out, rd.Compare(schedules...))
	}
	return nil
}

func isText(format string) bool {
	switch format {
	case "tiles", "stats", "analysis":
		return true
	}
	return false
}

func writeSchedule(w io.Writer, rd *render.Renderer, s *model.Schedule, format string, legend bool) error {
	switch format {
	case "tiles":
		fmt.Fprintf(w, "Schedule (%s method)\n\n%s\n\n%s\n\n", s.Method, rd.Tiles(s, legend), rd.Statistics(s))
	case "stats":
		fmt.Fprintf(w, "%s\n\n", rd.Statistics(s))
	case "analysis":
		fmt.Fprintf(w, "%s\n\n", rd.Availability(s))
	case "json":
		return export.WriteJSON(w, s)
	case "csv":
		return export.WriteCSV(w, s)
	case "stats-csv":
		return export.WriteStatsCSV(w, s)
	case "allocation-csv":
		return export.WriteAllocationCSV(w, s)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
