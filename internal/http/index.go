package http

import (
	"log"
	"net/http"

	"github.com/tomek7667/serachart/internal/history"
)

type indexData struct {
	Metrics []history.MetricSpec
	Windows []history.Window
	Labels  map[string]string
	Metric  string
	Window  string
}

func (s *Server) AddIndexRoute() {
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		specs := s.catalog.Specs()
		data := indexData{
			Metrics: specs,
			Windows: history.Windows(),
			Labels:  make(map[string]string, len(specs)),
			Window:  history.DefaultWindow,
		}
		for _, spec := range specs {
			data.Labels[spec.ID] = spec.Label
		}
		if len(specs) > 0 {
			data.Metric = specs[0].ID
		}
		if spec, ok := s.catalog.Lookup(r.URL.Query().Get("metric")); ok {
			data.Metric = spec.ID
		}
		if win, ok := history.LookupWindow(r.URL.Query().Get("range")); ok {
			data.Window = win.Key
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, data); err != nil {
			log.Printf("failed to render index: %v", err)
		}
	})
}
