package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomek7667/serachart/internal/canvas"
	"github.com/tomek7667/serachart/internal/history"
)

const (
	maxChartSide  = 4000
	maxPixelRatio = 4
	defaultTipW   = 120

	// backing image budget in device pixels, 64 MiB of RGBA
	maxChartPixels = 4096 * 4096
)

type paramError struct {
	msg     string
	allowed []string
}

func (e *paramError) Error() string { return e.msg }

func (s *Server) AddHistoryRoutes() {
	s.r.Get("/api/history", s.handleHistory)
	s.r.Get("/api/history/chart.png", s.handleChart("png"))
	s.r.Get("/api/history/chart.svg", s.handleChart("svg"))
	s.r.Get("/api/history/summary", s.handleSummary)
	s.r.Get("/api/history/hover", s.handleHover)
}

// fetch resolves metric, range and force from the query and asks the poller.
// It writes the error response itself and returns false on failure.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) (history.MetricSpec, history.Window, Fetched, bool) {
	spec, err := s.metricParam(r)
	if err != nil {
		writeParamError(w, err)
		return spec, history.Window{}, Fetched{}, false
	}
	win, err := windowParam(r)
	if err != nil {
		writeParamError(w, err)
		return spec, win, Fetched{}, false
	}
	// resizes re-render the batch already on hand without touching the source
	if boolParam(r, "cached") {
		if res, ok := s.poller.Cached(spec.ID, win.Key); ok {
			return spec, win, res, true
		}
	}
	res, err := s.poller.Get(r.Context(), spec.ID, win, boolParam(r, "force"))
	if err != nil {
		log.Printf("history fetch failed for %s/%s: %v", spec.ID, win.Key, err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("history unavailable: %v", err))
		return spec, win, res, false
	}
	return spec, win, res, true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	spec, _, res, ok := s.fetch(w, r)
	if !ok {
		return
	}
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		writeHistoryCSV(w, spec.ID, res.Batch.Points)
		return
	}
	batch := res.Batch
	batch.Metric = spec.ID
	if batch.Points == nil {
		batch.Points = []history.RawPoint{}
	}
	writeJSON(w, http.StatusOK, batch)
}

func writeHistoryCSV(w http.ResponseWriter, metric string, points []history.RawPoint) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"ts", metric})
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		cw.Write([]string{csvField(p[0]), csvField(p[1])})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=history_%s.csv", metric))
	w.Write(buf.Bytes())
}

func csvField(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprint(n)
	}
}

func (s *Server) handleChart(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, err := floatParam(r, "w", history.DefaultWidth, 1, maxChartSide)
		if err != nil {
			writeParamError(w, err)
			return
		}
		height, err := floatParam(r, "h", history.DefaultHeight, 1, maxChartSide)
		if err != nil {
			writeParamError(w, err)
			return
		}
		ratio, err := floatParam(r, "dpr", 1, 0.5, maxPixelRatio)
		if err != nil {
			writeParamError(w, err)
			return
		}
		if math.Ceil(width*ratio)*math.Ceil(height*ratio) > maxChartPixels {
			writeParamError(w, &paramError{msg: fmt.Sprintf("chart of %gx%g at dpr %g exceeds %d device pixels", width, height, ratio, maxChartPixels)})
			return
		}
		spec, _, res, ok := s.fetch(w, r)
		if !ok {
			return
		}

		start := time.Now()
		var (
			body        bytes.Buffer
			contentType string
			state       *history.RenderState
		)
		switch format {
		case "svg":
			surface := canvas.NewSVG(width, height)
			state = s.renderer.Render(surface, res.Samples, spec.ID)
			_, err = surface.WriteTo(&body)
			contentType = "image/svg+xml"
		default:
			surface := canvas.NewRaster(width, height, ratio)
			state = s.renderer.Render(surface, res.Samples, spec.ID)
			err = surface.EncodePNG(&body)
			contentType = "image/png"
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.obs.observeRender(format, time.Since(start))

		id := s.snapshots.Put(state)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Render-Snapshot", id)
		w.Header().Set("X-History-Count", strconv.Itoa(len(state.Points)))
		if res.Stale {
			w.Header().Set("X-History-Stale", "1")
		}
		w.Write(body.Bytes())
	}
}

type summaryResponse struct {
	Metric    string `json:"metric"`
	Range     string `json:"range"`
	history.Summary
	Clipped   int   `json:"clipped"`
	FetchedAt int64 `json:"fetchedAt"`
	Stale     bool  `json:"stale"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	spec, win, res, ok := s.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Metric:    spec.ID,
		Range:     win.Key,
		Summary:   history.Summarize(res.Samples, s.catalog, spec.ID),
		Clipped:   spec.Clipped(res.Samples),
		FetchedAt: res.FetchedAt.UnixMilli(),
		Stale:     res.Stale,
	})
}

type hoverResponse struct {
	Index      int     `json:"index"`
	Ts         float64 `json:"ts"`
	Value      float64 `json:"value"`
	Time       string  `json:"time"`
	ValueLabel string  `json:"valueLabel"`
	Text       string  `json:"text"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("snapshot")
	state, ok := s.snapshots.Get(id)
	if !ok {
		s.obs.observeHover("unknown_snapshot")
		writeError(w, http.StatusNotFound, "unknown render snapshot")
		return
	}
	x, err := requiredFloat(r, "x")
	if err != nil {
		writeParamError(w, err)
		return
	}
	y, err := requiredFloat(r, "y")
	if err != nil {
		writeParamError(w, err)
		return
	}
	panel, err := floatParam(r, "panel", state.Width, 0, maxChartSide*maxPixelRatio)
	if err != nil {
		writeParamError(w, err)
		return
	}
	tip, err := floatParam(r, "tip", defaultTipW, 0, maxChartSide)
	if err != nil {
		writeParamError(w, err)
		return
	}

	h, ok := history.Resolve(state, x, y)
	if !ok {
		s.obs.observeHover("miss")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.obs.observeHover("hit")
	left, top := history.PlaceTooltip(x, y, panel, tip)
	writeJSON(w, http.StatusOK, hoverResponse{
		Index:      h.Index,
		Ts:         h.Sample.Timestamp,
		Value:      h.Sample.Value,
		Time:       h.TimeLabel,
		ValueLabel: h.ValueLabel,
		Text:       h.Text(),
		Left:       left,
		Top:        top,
	})
}

func (s *Server) metricParam(r *http.Request) (history.MetricSpec, error) {
	id := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("metric")))
	allowed := func() []string {
		specs := s.catalog.Specs()
		ids := make([]string, 0, len(specs))
		for _, spec := range specs {
			ids = append(ids, spec.ID)
		}
		sort.Strings(ids)
		return ids
	}
	if id == "" {
		return history.MetricSpec{}, &paramError{msg: "metric is required", allowed: allowed()}
	}
	spec, ok := s.catalog.Lookup(id)
	if !ok {
		return history.MetricSpec{}, &paramError{msg: "invalid metric", allowed: allowed()}
	}
	return spec, nil
}

func windowParam(r *http.Request) (history.Window, error) {
	key := strings.TrimSpace(r.URL.Query().Get("range"))
	win, ok := history.LookupWindow(key)
	if !ok {
		var keys []string
		for _, w := range history.Windows() {
			keys = append(keys, w.Key)
		}
		return win, &paramError{msg: "invalid range", allowed: keys}
	}
	return win, nil
}

func floatParam(r *http.Request, name string, def, lo, hi float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < lo || v > hi {
		return 0, &paramError{msg: fmt.Sprintf("%s must be a number between %g and %g", name, lo, hi)}
	}
	return v, nil
}

func requiredFloat(r *http.Request, name string) (float64, error) {
	if strings.TrimSpace(r.URL.Query().Get(name)) == "" {
		return 0, &paramError{msg: name + " is required"}
	}
	return floatParam(r, name, 0, -maxChartSide*maxPixelRatio, maxChartSide*maxPixelRatio)
}

func boolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func writeParamError(w http.ResponseWriter, err error) {
	var pe *paramError
	if errors.As(err, &pe) && len(pe.allowed) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": pe.msg, "allowed": pe.allowed})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
