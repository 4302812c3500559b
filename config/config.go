// Package config holds server configuration and its YAML loader.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration.
type Config struct {
	Port           int             `yaml:"port"`
	DBPath         string          `yaml:"db_path"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
}

// SchedulerConfig controls the due-follow-up scheduler.
type SchedulerConfig struct {
	CheckInterval      time.Duration `yaml:"check_interval"`
	StaleAfter         time.Duration `yaml:"stale_after"`
	SnoozeMinutes      int           `yaml:"snooze_minutes"`
	RecentSnoozeWindow time.Duration `yaml:"recent_snooze_window"`
	StopTimeout        time.Duration `yaml:"stop_timeout"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.DBPath == "" {
		c.DBPath = "seeds.db"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if c.Scheduler.CheckInterval <= 0 {
		c.Scheduler.CheckInterval = 60 * time.Second
	}
	if c.Scheduler.StaleAfter <= 0 {
		c.Scheduler.StaleAfter = 30 * time.Minute
	}
	if c.Scheduler.SnoozeMinutes <= 0 {
		c.Scheduler.SnoozeMinutes = 90
	}
	if c.Scheduler.RecentSnoozeWindow <= 0 {
		c.Scheduler.RecentSnoozeWindow = 15 * time.Minute
	}
	if c.Scheduler.StopTimeout <= 0 {
		c.Scheduler.StopTimeout = 5 * time.Second
	}
}

// Load reads a YAML config file and fills defaults for anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
