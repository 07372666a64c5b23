package http

import (
	"net/http"

	"github.com/tomek7667/serachart/internal/history"
)

func (s *Server) AddMetaRoutes() {
	s.r.Get("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"metrics": s.catalog.Specs()})
	})

	s.r.Get("/api/windows", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"windows": history.Windows(),
			"default": history.DefaultWindow,
		})
	})

	s.r.Get("/api/host", func(w http.ResponseWriter, r *http.Request) {
		if s.host == nil {
			writeError(w, http.StatusNotFound, "host telemetry disabled")
			return
		}
		writeJSON(w, http.StatusOK, s.host.Info())
	})

	s.r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})
}
