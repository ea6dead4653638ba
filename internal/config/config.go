package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	EC         EC         `yaml:"ec"`
	Monitor    Monitor    `yaml:"monitor"`
	History    History    `yaml:"history"`
	Thresholds Thresholds `yaml:"thresholds"`
	Insights   Insights   `yaml:"insights"`
}

type EC struct {
	// SysPath/DevPath override the EC interface candidates, mainly
	// for bench rigs and tests.
	SysPath string `yaml:"sys_path,omitempty"`
	DevPath string `yaml:"dev_path,omitempty"`

	// VerifyWrites makes mutating operations read registers back
	// and fail on mismatch instead of the best-effort default.
	VerifyWrites bool `yaml:"verify_writes,omitempty"`

	// RPMEstimateFactor scales fan percent into an estimated RPM
	// when no RPM register is readable.
	RPMEstimateFactor int `yaml:"rpm_estimate_factor,omitempty"`
}

type Monitor struct {
	Interval         int `yaml:"interval"`          // fan state refresh, seconds
	InsightsInterval int `yaml:"insights_interval"` // telemetry refresh, seconds
}

type History struct {
	Path string `yaml:"path,omitempty"` // sqlite database location
}

type Thresholds struct {
	WarningTemp  int `yaml:"warning_temp"`
	CriticalTemp int `yaml:"critical_temp"`
}

type Insights struct {
	CommandTimeout int `yaml:"command_timeout"` // seconds per external command
}

var defaultConfig = Config{
	EC: EC{
		RPMEstimateFactor: 55,
	},
	Monitor: Monitor{
		Interval:         2,
		InsightsInterval: 10,
	},
	Thresholds: Thresholds{
		WarningTemp:  80,
		CriticalTemp: 95,
	},
	Insights: Insights{
		CommandTimeout: 2,
	},
}

func Load(path string) (*Config, error) {
	if path == "" {
		// Try default locations
		candidates := []string{
			"/etc/nitroctl/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/nitroctl/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	var cfg Config
	if path == "" {
		// No config file found - run entirely on defaults
		cfg = defaultConfig
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			cfg = defaultConfig
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	// Apply defaults for missing values
	if cfg.EC.RPMEstimateFactor == 0 {
		cfg.EC.RPMEstimateFactor = defaultConfig.EC.RPMEstimateFactor
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = defaultConfig.Monitor.Interval
	}
	if cfg.Monitor.InsightsInterval == 0 {
		cfg.Monitor.InsightsInterval = defaultConfig.Monitor.InsightsInterval
	}
	if cfg.Thresholds.WarningTemp == 0 {
		cfg.Thresholds.WarningTemp = defaultConfig.Thresholds.WarningTemp
	}
	if cfg.Thresholds.CriticalTemp == 0 {
		cfg.Thresholds.CriticalTemp = defaultConfig.Thresholds.CriticalTemp
	}
	if cfg.Insights.CommandTimeout == 0 {
		cfg.Insights.CommandTimeout = defaultConfig.Insights.CommandTimeout
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.EC.RPMEstimateFactor < 0 {
		return fmt.Errorf("ec.rpm_estimate_factor must not be negative")
	}
	if c.Monitor.Interval < 1 {
		return fmt.Errorf("monitor.interval must be at least 1 second")
	}
	if c.Thresholds.WarningTemp > c.Thresholds.CriticalTemp {
		return fmt.Errorf("thresholds.warning_temp must not exceed thresholds.critical_temp")
	}
	return nil
}
