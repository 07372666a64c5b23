package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v2"

	"github.com/tomek7667/serachart/internal/config"
	"github.com/tomek7667/serachart/internal/http"
	"github.com/tomek7667/serachart/internal/source"
)

func main() {
	if err := config.LoadEnv("./.env.local", "./.env"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}

	app := &cli.App{
		Name:        "serachart",
		Description: "greenhouse history charts rendered server side, with hover lookups for the dashboard",
		Usage:       "serve the history dashboard or render charts offline (use subcommands)",
		Version:     appVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "optional YAML config file",
				EnvVars: []string{"SERACHART_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				EnvVars: []string{"PORT"},
				Value:   8080,
			},
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "greenhouse controller base url",
				EnvVars: []string{"BACKEND_URL"},
			},
			&cli.StringFlag{
				Name:    "prometheus-url",
				Usage:   "prometheus server for metrics listed under prometheus.queries",
				EnvVars: []string{"PROMETHEUS_URL"},
			},
			&cli.StringFlag{
				Name:    "history-dir",
				Usage:   "serve exported history files from this directory instead of the controller",
				EnvVars: []string{"HISTORY_DIR"},
			},
			&cli.IntFlag{
				Name:    "max-points",
				Usage:   "upper bound on drawn points per chart",
				EnvVars: []string{"MAX_POINTS"},
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "IANA zone for time labels",
				EnvVars: []string{"SERACHART_TIMEZONE"},
			},
			&cli.BoolFlag{
				Name:    "no-host",
				Usage:   "disable local host telemetry metrics",
				EnvVars: []string{"SERACHART_NO_HOST"},
			},
		},
		Commands: []*cli.Command{
			cmdRender(),
			cmdExport(),
		},
		CommandNotFound: func(c *cli.Context, command string) {
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
			cli.ShowAppHelpAndExit(c, 1)
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var host *source.Host
			if !cfg.DisableHost {
				host = source.NewHost()
			}
			wiring, err := wireSources(c.Context, cfg, host, cfg.HistoryDir != "")
			if err != nil {
				return err
			}
			renderer, err := newRenderer(cfg, wiring.catalog)
			if err != nil {
				return err
			}

			server := http.New(http.Options{
				Port:     cfg.Port,
				Source:   wiring.router,
				Catalog:  wiring.catalog,
				Renderer: renderer,
				Poller: http.PollerOptions{
					MinInterval:     cfg.Poller.MinInterval,
					RefreshInterval: cfg.Poller.RefreshInterval,
					Timeout:         cfg.Poller.Timeout,
					Idle:            cfg.Poller.Idle,
				},
				Snapshots: cfg.Snapshots,
				Host:      host,
				Version:   appVersion(),
			})
			return server.Serve()
		},
		BashComplete: cli.ShowCompletions,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the YAML file, then lets flags and environment
// variables override it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("backend-url") {
		cfg.BackendURL = c.String("backend-url")
	}
	if c.IsSet("prometheus-url") {
		cfg.Prometheus.URL = c.String("prometheus-url")
	}
	if c.IsSet("history-dir") {
		cfg.HistoryDir = c.String("history-dir")
	}
	if c.IsSet("max-points") {
		cfg.MaxPoints = c.Int("max-points")
	}
	if c.IsSet("timezone") {
		cfg.Timezone = c.String("timezone")
	}
	if c.IsSet("no-host") {
		cfg.DisableHost = c.Bool("no-host")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return "unknown"
	}

	var rev string
	var modified bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	switch {
	case bi.Main.Version != "" && bi.Main.Version != "(devel)":
		return bi.Main.Version
	case rev != "" && modified:
		return rev + " (modified)"
	case rev != "":
		return rev
	case bi.Main.Version != "":
		return bi.Main.Version
	}
	return "unknown"
}
