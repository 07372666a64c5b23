// Package source fetches raw history batches for the chart.
//
// Every implementation returns the controller's wire shape (history.Batch)
// so the renderer never knows where a series came from.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomek7667/serachart/internal/history"
)

var ErrUnknownMetric = errors.New("metric not served by this source")

type Source interface {
	History(ctx context.Context, metricID string, from, to time.Time) (history.Batch, error)
}

// Router sends each metric to the source registered for it. Metrics
// without a route go to the fallback.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]Source
	fallback Source
}

func NewRouter(fallback Source) *Router {
	return &Router{
		routes:   make(map[string]Source),
		fallback: fallback,
	}
}

func (r *Router) Handle(metricID string, s Source) {
	r.mu.Lock()
	r.routes[metricID] = s
	r.mu.Unlock()
}

func (r *Router) History(ctx context.Context, metricID string, from, to time.Time) (history.Batch, error) {
	r.mu.RLock()
	s, ok := r.routes[metricID]
	if !ok {
		s = r.fallback
	}
	r.mu.RUnlock()
	if s == nil {
		return history.Batch{}, fmt.Errorf("%s: %w", metricID, ErrUnknownMetric)
	}
	return s.History(ctx, metricID, from, to)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// within keeps the points whose timestamp falls in [from, to]. Points with
// an unreadable timestamp are passed through; the sample filter drops them.
func within(points []history.RawPoint, from, to float64) []history.RawPoint {
	out := make([]history.RawPoint, 0, len(points))
	for _, p := range points {
		if ts, ok := p.Timestamp(); ok && (ts < from || ts > to) {
			continue
		}
		out = append(out, p)
	}
	return out
}
