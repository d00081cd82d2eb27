package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds all configuration settings for the EIS plotting server and its tools
type Config struct {
	Server ServerConfig `yaml:"server"`
	Poller PollerConfig `yaml:"poller"`
	Feeder FeederConfig `yaml:"feeder"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `yaml:"port" env:"EISPLOT_PORT"`
	MaxHistory      int           `yaml:"max_history" env:"EISPLOT_MAX_HISTORY"`
	Quiet           bool          `yaml:"quiet" env:"EISPLOT_QUIET"`
	EnableMetrics   bool          `yaml:"enable_metrics" env:"EISPLOT_ENABLE_METRICS"`
	EnableProfiling bool          `yaml:"enable_profiling" env:"EISPLOT_ENABLE_PROFILING"`
	ProfilingPort   string        `yaml:"profiling_port" env:"EISPLOT_PROFILING_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"EISPLOT_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"EISPLOT_WRITE_TIMEOUT"`
}

// PollerConfig configures the client poller used by `eisctl watch`.
type PollerConfig struct {
	BaseURL  string        `yaml:"base_url" env:"EISPLOT_POLLER_URL"`
	Interval time.Duration `yaml:"interval" env:"EISPLOT_POLLER_INTERVAL"`
	Timeout  time.Duration `yaml:"timeout" env:"EISPLOT_POLLER_TIMEOUT"`
}

// FeederConfig configures `eisctl import` and `eisctl simulate`.
type FeederConfig struct {
	WebhookURL string    `yaml:"webhook_url" env:"EISPLOT_WEBHOOK_URL"`
	Workers    int       `yaml:"workers" env:"EISPLOT_FEEDER_WORKERS"`
	Circuit    string    `yaml:"circuit" env:"EISPLOT_FEEDER_CIRCUIT"`
	Params     []float64 `yaml:"params" env:"EISPLOT_FEEDER_PARAMS"`
	Spectra    int       `yaml:"spectra" env:"EISPLOT_FEEDER_SPECTRA"`
	Points     int       `yaml:"points" env:"EISPLOT_FEEDER_POINTS"`
	FMin       float64   `yaml:"f_min" env:"EISPLOT_FEEDER_FMIN"`
	FMax       float64   `yaml:"f_max" env:"EISPLOT_FEEDER_FMAX"`
	Noise      float64   `yaml:"noise" env:"EISPLOT_FEEDER_NOISE"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3001",
			MaxHistory:      0,
			EnableMetrics:   true,
			EnableProfiling: false,
			ProfilingPort:   "6060",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
		},
		Poller: PollerConfig{
			BaseURL:  "http://localhost:3001",
			Interval: 2 * time.Second,
			Timeout:  5 * time.Second,
		},
		Feeder: FeederConfig{
			WebhookURL: "http://webplot:3001/webhook",
			Workers:    5,
			Circuit:    "R(QR)",
			Spectra:    20,
			Points:     50,
			FMin:       0.1,
			FMax:       1e5,
			Noise:      0.01,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE and environment overrides, in that order.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("config: server.max_history must be >= 0, got %d", c.Server.MaxHistory))
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, fmt.Errorf("config: poller.interval must be positive, got %s", c.Poller.Interval))
	}
	if c.Poller.Timeout < 0 {
		errs = append(errs, fmt.Errorf("config: poller.timeout must be >= 0, got %s", c.Poller.Timeout))
	}
	if c.Feeder.Workers < 1 {
		errs = append(errs, fmt.Errorf("config: feeder.workers must be >= 1, got %d", c.Feeder.Workers))
	}
	return errors.Join(errs...)
}

// HTTPAddress returns :port style.
func (c *ServerConfig) HTTPAddress() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "3001"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
