// Package config loads formcover settings with priority env > file >
// defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMCOVER_"

// Config is the full CLI configuration.
type Config struct {
	Sampling    SamplingConfig   `json:"sampling" yaml:"sampling"`
	Gatekeepers GatekeeperConfig `json:"gatekeepers" yaml:"gatekeepers"`
	Solver      SolverConfig     `json:"solver" yaml:"solver"`
	Report      ReportConfig     `json:"report" yaml:"report"`
	Logging     LoggingConfig    `json:"logging" yaml:"logging"`
	Telemetry   TelemetryConfig  `json:"telemetry" yaml:"telemetry"`
}

// SamplingConfig bounds the cross-product fallback. Seed 0 draws a seed.
type SamplingConfig struct {
	MaxSamples int    `json:"max_samples" yaml:"max_samples" validate:"gte=1,lte=1000000"`
	Seed       uint64 `json:"seed" yaml:"seed"`
}

// GatekeeperConfig controls gatekeeper selection.
type GatekeeperConfig struct {
	Max           int `json:"max" yaml:"max" validate:"gte=0,lte=64"`
	MinControlled int `json:"min_controlled" yaml:"min_controlled" validate:"gte=1"`
}

// SolverConfig holds solver limits. A zero timeout means no limit.
type SolverConfig struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// ReportConfig selects the renderers and where their files go.
type ReportConfig struct {
	Format    string `json:"format" yaml:"format" validate:"required"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Preset names a question patch document applied before modelling.
	Preset string `json:"preset" yaml:"preset"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// TelemetryConfig configures metrics export and tracing.
type TelemetryConfig struct {
	// MetricsFile, when set, receives the Prometheus text exposition after
	// each run.
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`
	Tracing     bool   `json:"tracing" yaml:"tracing"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sampling:    SamplingConfig{MaxSamples: 500},
		Gatekeepers: GatekeeperConfig{Max: 3, MinControlled: 2},
		Report:      ReportConfig{Format: "text"},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (optional) over the defaults, applies FORMCOVER_*
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	if err := loadEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func loadEnv(cfg *Config, lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = i
		}
	}

	integer("SAMPLING_MAX_SAMPLES", &cfg.Sampling.MaxSamples)
	if v, ok := lookup(EnvPrefix + "SAMPLING_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSAMPLING_SEED: %w", EnvPrefix, err))
		} else {
			cfg.Sampling.Seed = seed
		}
	}
	integer("GATEKEEPERS_MAX", &cfg.Gatekeepers.Max)
	integer("GATEKEEPERS_MIN_CONTROLLED", &cfg.Gatekeepers.MinControlled)
	if v, ok := lookup(EnvPrefix + "SOLVER_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSOLVER_TIMEOUT: %w", EnvPrefix, err))
		} else {
			cfg.Solver.Timeout = d
		}
	}
	str("REPORT_FORMAT", &cfg.Report.Format)
	str("REPORT_OUTPUT_DIR", &cfg.Report.OutputDir)
	str("REPORT_PRESET", &cfg.Report.Preset)
	str("LOGGING_LEVEL", &cfg.Logging.Level)
	str("LOGGING_FORMAT", &cfg.Logging.Format)
	str("TELEMETRY_METRICS_FILE", &cfg.Telemetry.MetricsFile)
	if v, ok := lookup(EnvPrefix + "TELEMETRY_TRACING"); ok && v != "" {
		cfg.Telemetry.Tracing = v == "true" || v == "1"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	return errors.Join(errs...)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Formats splits Report.Format on commas, e.g. "text,gating-csv".
func (c Config) Formats() []string {
	var out []string
	for _, part := range strings.Split(c.Report.Format, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
