package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/source"
)

type Options struct {
	Port      int
	Source    source.Source
	Catalog   *history.Catalog
	Renderer  *history.Renderer
	Poller    PollerOptions
	Snapshots int
	// Host is optional; without it /api/host answers 404.
	Host    *source.Host
	Version string
}

type Server struct {
	port      int
	r         *chi.Mux
	catalog   *history.Catalog
	renderer  *history.Renderer
	poller    *Poller
	snapshots *snapshotStore
	host      *source.Host
	obs       *collectors
	version   string
}

func New(opts Options) *Server {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = history.DefaultCatalog()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = history.NewRenderer(catalog)
	}
	s := &Server{
		r:         chi.NewRouter(),
		port:      opts.Port,
		catalog:   catalog,
		renderer:  renderer,
		poller:    NewPoller(opts.Source, opts.Poller),
		snapshots: newSnapshotStore(opts.Snapshots),
		host:      opts.Host,
		version:   opts.Version,
	}
	s.obs = newCollectors(func() float64 { return float64(s.snapshots.Len()) })
	s.poller.obs = s.obs

	s.r.Use(newRequestLogger("/api/history/hover", "/metrics"))
	s.r.Use(middleware.RequestID)
	s.r.Use(middleware.RealIP)
	s.r.Use(middleware.Recoverer)
	s.r.Use(middleware.Timeout(60 * time.Second))

	s.AddIndexRoute()
	s.AddHistoryRoutes()
	s.AddMetaRoutes()
	s.r.Handle("/metrics", s.obs.handler())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.r
}

// Serve runs the background loops and the listener until SIGINT or SIGTERM.
func (s *Server) Serve() error {
	stop := make(chan struct{})
	defer close(stop)
	if s.host != nil {
		s.host.Start(stop)
	}
	s.poller.Start(stop)

	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on '%s'", addr)
		if s.host != nil {
			if ip := s.host.Info().HostIP; ip != "" {
				log.Printf("dashboard at http://%s:%d/", ip, s.port)
			}
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	case <-c:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
