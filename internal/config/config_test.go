package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomek7667/serachart/internal/history"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.MaxPoints != history.DefaultMaxPoints {
		t.Fatalf("max points %d", cfg.MaxPoints)
	}
	if cfg.Poller.MinInterval != 25*time.Second || cfg.Poller.RefreshInterval != 30*time.Second {
		t.Fatalf("poller %+v", cfg.Poller)
	}
	if loc, _ := cfg.Location(); loc != time.Local {
		t.Fatalf("default location %v", loc)
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	p := writeFile(t, "serachart.yaml", `
port: 9000
backend_url: http://greenhouse.local:8000
timezone: UTC
poller:
  min_interval: 10s
prometheus:
  url: http://prometheus:9090
  queries:
    co2: avg(greenhouse_co2_ppm)
metrics:
  - id: co2
    label: CO2
    unit: ppm
    precision: 0
    band_min: 0
    band_max: 2000
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Port != 9000 || cfg.BackendURL != "http://greenhouse.local:8000" {
		t.Fatalf("top level %+v", cfg)
	}
	if cfg.Poller.MinInterval != 10*time.Second {
		t.Fatalf("min interval %v", cfg.Poller.MinInterval)
	}
	if cfg.Poller.RefreshInterval != 30*time.Second {
		t.Fatalf("unset keys keep their default, got %v", cfg.Poller.RefreshInterval)
	}
	if cfg.Prometheus.Queries["co2"] != "avg(greenhouse_co2_ppm)" {
		t.Fatalf("queries %v", cfg.Prometheus.Queries)
	}
	if cfg.MaxPoints != history.DefaultMaxPoints {
		t.Fatalf("max points %d", cfg.MaxPoints)
	}

	cat := cfg.Catalog()
	spec, ok := cat.Lookup("co2")
	if !ok || spec.DisplayRange == nil || spec.DisplayRange.Max != 2000 {
		t.Fatalf("co2 spec %+v", spec)
	}
	if got := cat.Format(612.4, "co2"); got != "612 ppm" {
		t.Fatalf("format %q", got)
	}
	if _, ok := cat.Lookup("dht_temp"); !ok {
		t.Fatalf("greenhouse metrics must stay in the catalog")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Port = 0
	cfg.BackendURL = "greenhouse.local"
	cfg.Timezone = "Mars/Olympus"
	cfg.Metrics = []MetricConfig{{Label: "nameless"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{"port 0", "backend_url", "timezone", "no id"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "port: [")); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestLoadEnvKeepsExistingVariables(t *testing.T) {
	t.Setenv("SERACHART_TEST_KEEP", "from-shell")
	p := writeFile(t, ".env.local", "SERACHART_TEST_KEEP=from-file\nSERACHART_TEST_NEW=loaded\n")
	t.Cleanup(func() { os.Unsetenv("SERACHART_TEST_NEW") })

	if err := LoadEnv(filepath.Join(t.TempDir(), "nope"), p); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv("SERACHART_TEST_KEEP"); got != "from-shell" {
		t.Fatalf("existing variable overwritten: %q", got)
	}
	if got := os.Getenv("SERACHART_TEST_NEW"); got != "loaded" {
		t.Fatalf("new variable %q", got)
	}
	if err := LoadEnv(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected an error when no file exists")
	}
}
