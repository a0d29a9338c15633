package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/slotplan/core/metrics"
	"github.com/kilianp07/slotplan/core/model"
	"github.com/kilianp07/slotplan/core/scheduler"
	"github.com/kilianp07/slotplan/importer"
)

type Config struct {
	Planner  scheduler.Config `json:"planner"`
	Projects []ProjectRecord  `json:"projects"`
	// Palette overrides the colors handed to projects without one.
	Palette model.Palette    `json:"palette"`
	Logging LoggingConfig    `json:"logging"`
	Metrics metrics.Config   `json:"metrics"`
	Store   StoreConfig      `json:"store"`
	Serve   ServeConfig      `json:"serve"`
	Import  importer.Mapping `json:"import"`
}

// Load reads the planner file at path. Keys can be overridden through the
// environment as K_SECTION__KEY, e.g. K_PLANNER__WEEKS=12.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Logging.SetDefaults()
	c.Store.SetDefaults()
	c.Serve.SetDefaults()
	c.Import.SetDefaults()
}

// Validate checks every section and parses the project list.
func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	projects, err := c.ProjectList()
	if err != nil {
		return err
	}
	if _, err := scheduler.NewRegistry(projects, time.Now(), nil); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Serve.Validate(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d: type is required", i)
		}
	}
	return nil
}
