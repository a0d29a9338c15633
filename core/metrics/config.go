package metrics

import "github.com/kilianp07/slotplan/core/factory"

// Config defines settings for schedule sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" koanf:"sinks"`
}
