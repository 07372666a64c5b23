package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/tomek7667/serachart/internal/config"
	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/json"
	"github.com/tomek7667/serachart/internal/source"
)

type wiring struct {
	router  *source.Router
	catalog *history.Catalog
}

// wireSources builds the metric router. The controller is the fallback
// unless offline is set, in which case exported files replace it.
// Prometheus and host metrics always get their own routes.
func wireSources(ctx context.Context, cfg config.Config, host *source.Host, offline bool) (wiring, error) {
	var fallback source.Source
	switch {
	case offline:
		store, err := json.New(cfg.HistoryDir)
		if err != nil {
			return wiring{}, fmt.Errorf("failed to open history dir: %w", err)
		}
		log.Printf("serving exported history from %s", cfg.HistoryDir)
		fallback = source.NewFile(store)
	case cfg.BackendURL != "":
		backend, err := source.NewBackend(cfg.BackendURL)
		if err != nil {
			return wiring{}, err
		}
		fallback = backend
	}
	router := source.NewRouter(fallback)

	var extra []history.MetricSpec
	if host != nil {
		for _, spec := range source.HostMetrics {
			router.Handle(spec.ID, host)
		}
		extra = append(extra, source.HostMetrics...)
	}

	if cfg.Prometheus.URL != "" && len(cfg.Prometheus.Queries) > 0 {
		prom, err := source.NewPrometheus(cfg.Prometheus.URL, cfg.Prometheus.Queries)
		if err != nil {
			return wiring{}, err
		}
		if err := prom.Check(ctx); err != nil {
			log.Printf("prometheus at %s is not answering yet: %v", cfg.Prometheus.URL, err)
		}
		ids := prom.Metrics()
		sort.Strings(ids)
		for _, id := range ids {
			router.Handle(id, prom)
			// a plain entry so the metric is listed; config metrics override it
			extra = append(extra, history.MetricSpec{ID: id, Label: id, Precision: 1})
		}
	}

	return wiring{
		router:  router,
		catalog: cfg.Catalog(extra...),
	}, nil
}

func newRenderer(cfg config.Config, catalog *history.Catalog) (*history.Renderer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	r := history.NewRenderer(catalog)
	r.MaxPoints = cfg.MaxPoints
	r.Location = loc
	return r, nil
}
