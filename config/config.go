package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"cleen/dataset"
)

// Config holds every configurable value for a reporting run.
type Config struct {
	LogLevel string `mapstructure:"log_level"` // debug|info|warn|error

	// Workers is the number of jobs processed in parallel.
	Workers int `mapstructure:"workers"`

	// MetricsTextfile, when set, receives the Prometheus metrics of the run
	// in text exposition format (node-exporter textfile collector).
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	// ConsoleAlerts also prints alerts as plain lines on stdout, next to the
	// warn-level log entry.
	ConsoleAlerts bool `mapstructure:"console_alerts"`

	Report ReportConfig `mapstructure:"report"`
	Jobs   []JobConfig  `mapstructure:"jobs"`
}

// ReportConfig selects the optional quality metrics.
type ReportConfig struct {
	ColumnStats        bool `mapstructure:"column_stats"`
	ValueDistributions bool `mapstructure:"value_distributions"`
	CorrelationMatrix  bool `mapstructure:"correlation_matrix"`
}

// JobConfig describes one input/output pair to report on.
type JobConfig struct {
	Name       string       `mapstructure:"name"`
	Input      SourceConfig `mapstructure:"input"`
	Output     SourceConfig `mapstructure:"output"`
	ReportPath string       `mapstructure:"report_path"`
}

// SourceConfig points at a dataset.
type SourceConfig struct {
	Kind  string `mapstructure:"kind"`  // csv|sqlite
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"` // sqlite only
}

// Load reads configuration from (in decreasing priority):
//  1. environment variables with the CLEEN_ prefix (e.g. CLEEN_LOG_LEVEL,
//     CLEEN_REPORT_COLUMN_STATS)
//  2. the yaml file at path, or ./configs/config.yaml if path is empty and
//     that file exists
//  3. defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("workers", 2)
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("console_alerts", false)
	v.SetDefault("report.column_stats", true)
	v.SetDefault("report.value_distributions", true)
	v.SetDefault("report.correlation_matrix", true)

	v.SetEnvPrefix("CLEEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields Load cannot default.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	seen := make(map[string]struct{}, len(c.Jobs))
	for i, j := range c.Jobs {
		if j.Name == "" {
			return fmt.Errorf("jobs[%d]: name must not be empty", i)
		}
		if _, dup := seen[j.Name]; dup {
			return fmt.Errorf("jobs[%d]: duplicate name %q", i, j.Name)
		}
		seen[j.Name] = struct{}{}
		if j.ReportPath == "" {
			return fmt.Errorf("job %q: report_path must not be empty", j.Name)
		}
		if err := j.Input.validate(); err != nil {
			return fmt.Errorf("job %q input: %w", j.Name, err)
		}
		if err := j.Output.validate(); err != nil {
			return fmt.Errorf("job %q output: %w", j.Name, err)
		}
	}
	return nil
}

func (s SourceConfig) validate() error {
	switch s.Kind {
	case dataset.KindCSV:
	case dataset.KindSQLite:
		if s.Table == "" {
			return errors.New("sqlite source needs a table")
		}
	default:
		return fmt.Errorf("%w: %q", dataset.ErrUnsupportedSource, s.Kind)
	}
	if s.Path == "" {
		return errors.New("path must not be empty")
	}
	return nil
}
