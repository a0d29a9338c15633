package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/slotplan/core/factory"
	"github.com/kilianp07/slotplan/core/model"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample planner file",
	RunE:  initFile,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

type sampleProject struct {
	Name          string  `yaml:"name" json:"name"`
	EndDate       string  `yaml:"end_date" json:"end_date"`
	RemainingDays float64 `yaml:"remaining_days" json:"remaining_days"`
	StartDate     string  `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	RenewalDays   float64 `yaml:"renewal_days,omitempty" json:"renewal_days,omitempty"`
	Priority      int     `yaml:"priority,omitempty" json:"priority,omitempty"`
}

type sampleFile struct {
	Planner struct {
		Weeks  int    `yaml:"weeks" json:"weeks"`
		Method string `yaml:"method" json:"method"`
	} `yaml:"planner" json:"planner"`
	Projects []sampleProject `yaml:"projects" json:"projects"`
	Metrics  struct {
		Sinks []factory.ModuleConfig `yaml:"sinks" json:"sinks"`
	} `yaml:"metrics" json:"metrics"`
	Store struct {
		Enabled bool   `yaml:"enabled" json:"enabled"`
		Path    string `yaml:"path" json:"path"`
	} `yaml:"store" json:"store"`
}

// sample builds a planner file whose deadlines are relative to today.
func sample(today time.Time) sampleFile {
	var f sampleFile
	f.Planner.Weeks = 12
	f.Planner.Method = string(model.MethodPaced)
	day := func(months, days int) string { return today.AddDate(0, months, days).Format(model.DateLayout) }
	f.Projects = []sampleProject{
		{Name: "Project Alpha", EndDate: day(6, 0), RemainingDays: 15, RenewalDays: 10},
		{Name: "Project Beta", EndDate: day(3, 0), RemainingDays: 8, Priority: 1},
		{Name: "Project Gamma", EndDate: day(0, 42), RemainingDays: 3, StartDate: day(0, 14)},
	}
	f.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	f.Store.Path = "slotplan.db"
	return f
}

func initFile(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", cfgPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	f := sample(model.Day(time.Now()))
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(cfgPath)); ext {
	case ".json":
		data, err = json.MarshalIndent(f, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(f)
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created sample planner file: %s\nEdit it to add your projects, then run 'slotplan plan'\n", cfgPath)
	return nil
}
