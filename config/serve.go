package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ServeConfig drives the re-planning daemon.
type ServeConfig struct {
	// Cron is a standard five field spec or a descriptor such as "@hourly".
	Cron string `json:"cron"`
	// MetricsAddr serves /metrics when set.
	MetricsAddr string `json:"metrics_addr"`
	// Watch re-plans when the planner file changes.
	Watch bool `json:"watch"`
	// MinInterval is the minimum delay between two runs.
	MinInterval time.Duration `json:"min_interval"`
	// Burst is the number of runs allowed back to back.
	Burst int `json:"burst"`
}

func (c *ServeConfig) SetDefaults() {
	if c.Cron == "" {
		c.Cron = "0 6 * * 1-5"
	}
	if c.MinInterval == 0 {
		c.MinInterval = 10 * time.Second
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
}

func (c ServeConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("invalid cron %q: %w", c.Cron, err)
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("min_interval must not be negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1")
	}
	return nil
}
