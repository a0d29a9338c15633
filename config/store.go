package config

import "fmt"

// StoreConfig enables the SQLite run history.
type StoreConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	// Keep bounds the number of runs retained, 0 keeps all.
	Keep int `json:"keep"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "slotplan.db"
	}
}

func (c StoreConfig) Validate() error {
	if c.Keep < 0 {
		return fmt.Errorf("keep must not be negative")
	}
	return nil
}
