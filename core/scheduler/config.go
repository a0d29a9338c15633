package scheduler

import (
	"strings"
	"time"

	"github.com/kilianp07/slotplan/core/model"
)

// DefaultWeeks is the planning horizon used when none is configured.
const DefaultWeeks = 52

// Config holds the run parameters of the engine.
type Config struct {
	Weeks  int    `json:"weeks"`
	Method string `json:"method"`
	// Today overrides the reference date (YYYY-MM-DD). Empty means now.
	Today string `json:"today"`
	// MinProbability drops projects less likely than this before planning.
	MinProbability float64 `json:"min_probability"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Weeks == 0 {
		c.Weeks = DefaultWeeks
	}
	if c.Method == "" {
		c.Method = string(model.MethodPaced)
	}
}

// Validate checks the parameters, returning a *ConfigurationError.
func (c Config) Validate() error {
	if c.Weeks <= 0 {
		return &ConfigurationError{Field: "weeks", Value: c.Weeks, Reason: "must be positive"}
	}
	if _, err := ParseMethod(c.Method); err != nil {
		return err
	}
	if c.Today != "" {
		if _, err := model.ParseDate(c.Today); err != nil {
			return &ConfigurationError{Field: "today", Value: c.Today, Reason: "is not a YYYY-MM-DD date"}
		}
	}
	if c.MinProbability < 0 || c.MinProbability > 1 {
		return &ConfigurationError{Field: "min_probability", Value: c.MinProbability, Reason: "must be within [0,1]"}
	}
	return nil
}

// ReferenceDate returns the configured Today or the current date.
func (c Config) ReferenceDate(now time.Time) time.Time {
	if c.Today != "" {
		if d, err := model.ParseDate(c.Today); err == nil {
			return d
		}
	}
	return model.Day(now)
}

// ParseMethod maps a selector string to a Method.
func ParseMethod(s string) (model.Method, error) {
	m := model.Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &ConfigurationError{Field: "method", Value: s, Reason: "must be paced or frontload"}
	}
	return m, nil
}
