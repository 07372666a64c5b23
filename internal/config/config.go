// Package config loads serachart settings from an optional YAML file.
// Command line flags and environment variables are applied on top by the
// caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tomek7667/serachart/internal/history"
)

type Config struct {
	Port       int    `yaml:"port"`
	BackendURL string `yaml:"backend_url"`
	HistoryDir string `yaml:"history_dir"`
	MaxPoints  int    `yaml:"max_points"`
	Timezone   string `yaml:"timezone"`
	Snapshots  int    `yaml:"snapshots"`
	// DisableHost turns off the local host telemetry metrics.
	DisableHost bool `yaml:"disable_host"`

	Prometheus PrometheusConfig `yaml:"prometheus"`
	Poller     PollerConfig     `yaml:"poller"`
	Metrics    []MetricConfig   `yaml:"metrics"`
}

type PrometheusConfig struct {
	URL string `yaml:"url"`
	// Queries maps a metric id to the PromQL expression charted for it.
	Queries map[string]string `yaml:"queries"`
}

type PollerConfig struct {
	MinInterval     time.Duration `yaml:"min_interval"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Timeout         time.Duration `yaml:"timeout"`
	// Idle is how long a key keeps being refreshed after its last view.
	Idle time.Duration `yaml:"idle"`
}

// MetricConfig adds or overrides a catalog entry.
type MetricConfig struct {
	ID        string   `yaml:"id"`
	Label     string   `yaml:"label"`
	Unit      string   `yaml:"unit"`
	Precision int      `yaml:"precision"`
	RawCount  bool     `yaml:"raw_count"`
	BandMin   *float64 `yaml:"band_min"`
	BandMax   *float64 `yaml:"band_max"`
}

func Default() Config {
	return Config{
		Port:       8080,
		BackendURL: "http://127.0.0.1:8000",
		MaxPoints:  history.DefaultMaxPoints,
		Timezone:   "Local",
		Snapshots:  256,
		Poller: PollerConfig{
			MinInterval:     25 * time.Second,
			RefreshInterval: 30 * time.Second,
			Timeout:         15 * time.Second,
			Idle:            10 * time.Minute,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads KEY=value files into the process environment without
// overriding variables that are already set.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return os.ErrNotExist
	}
	return godotenv.Load(existing...)
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.BackendURL == "" && c.HistoryDir == "" && c.Prometheus.URL == "" && c.DisableHost {
		errs = append(errs, errors.New("no history source configured"))
	}
	for name, raw := range map[string]string{"backend_url": c.BackendURL, "prometheus.url": c.Prometheus.URL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute url", name, raw))
		}
	}
	if c.MaxPoints < 2 {
		errs = append(errs, fmt.Errorf("max_points must be at least 2, got %d", c.MaxPoints))
	}
	if c.Snapshots < 1 {
		errs = append(errs, fmt.Errorf("snapshots must be positive, got %d", c.Snapshots))
	}
	if c.Poller.RefreshInterval <= 0 || c.Poller.MinInterval < 0 || c.Poller.Timeout <= 0 {
		errs = append(errs, errors.New("poller intervals must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	for i, m := range c.Metrics {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("metrics[%d] has no id", i))
		}
		if m.BandMin != nil && m.BandMax != nil && *m.BandMax <= *m.BandMin {
			errs = append(errs, fmt.Errorf("metric %s: band_max must exceed band_min", m.ID))
		}
	}
	return errors.Join(errs...)
}

// Location resolves Timezone; "" and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Catalog returns the greenhouse metrics extended with extra and the
// configured metric entries, in that order.
func (c Config) Catalog(extra ...history.MetricSpec) *history.Catalog {
	specs := append([]history.MetricSpec(nil), extra...)
	for _, m := range c.Metrics {
		spec := history.MetricSpec{
			ID:        m.ID,
			Label:     m.Label,
			Unit:      m.Unit,
			Precision: m.Precision,
			RawCount:  m.RawCount,
		}
		if spec.Label == "" {
			spec.Label = m.ID
		}
		if m.BandMin != nil && m.BandMax != nil {
			spec.DisplayRange = &history.ValueRange{Min: *m.BandMin, Max: *m.BandMax}
		}
		specs = append(specs, spec)
	}
	return history.DefaultCatalog().With(specs...)
}
