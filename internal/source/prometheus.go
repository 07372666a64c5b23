package source

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/tomek7667/serachart/internal/history"
)

const (
	prometheusMinStep  = 15 * time.Second
	prometheusTimeout  = 20 * time.Second
	prometheusMaxSteps = 1000
)

// Prometheus answers history requests with range queries. Each metric id
// maps to one PromQL expression; only the first returned series is used.
type Prometheus struct {
	client  api.Client
	queries map[string]string
}

func NewPrometheus(address string, queries map[string]string) (*Prometheus, error) {
	client, err := api.NewClient(api.Config{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	q := make(map[string]string, len(queries))
	for id, expr := range queries {
		q[id] = expr
	}
	return &Prometheus{client: client, queries: q}, nil
}

// Metrics lists the metric ids that have a query configured.
func (p *Prometheus) Metrics() []string {
	ids := make([]string, 0, len(p.queries))
	for id := range p.queries {
		ids = append(ids, id)
	}
	return ids
}

func (p *Prometheus) Check(ctx context.Context) error {
	v1api := v1.NewAPI(p.client)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, warnings, err := v1api.Query(ctx, "up", time.Now())
	if err != nil {
		return fmt.Errorf("prometheus API query failed: %w", err)
	}
	if len(warnings) > 0 {
		log.Printf("prometheus warnings: %v", warnings)
	}
	return nil
}

func (p *Prometheus) History(ctx context.Context, metricID string, from, to time.Time) (history.Batch, error) {
	expr, ok := p.queries[metricID]
	if !ok {
		return history.Batch{}, fmt.Errorf("%s: %w", metricID, ErrUnknownMetric)
	}

	v1api := v1.NewAPI(p.client)
	ctx, cancel := context.WithTimeout(ctx, prometheusTimeout)
	defer cancel()

	result, warnings, err := v1api.QueryRange(ctx, expr, v1.Range{
		Start: from,
		End:   to,
		Step:  rangeStep(from, to),
	})
	if err != nil {
		return history.Batch{}, fmt.Errorf("prometheus range query for %s failed: %w", metricID, err)
	}
	if len(warnings) > 0 {
		log.Printf("prometheus warnings for %s: %v", metricID, warnings)
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return history.Batch{}, fmt.Errorf("prometheus returned %s for %s, want a matrix", result.Type(), metricID)
	}
	return matrixBatch(metricID, from, to, matrix), nil
}

func rangeStep(from, to time.Time) time.Duration {
	step := to.Sub(from) / prometheusMaxSteps
	if step < prometheusMinStep {
		return prometheusMinStep
	}
	return step.Truncate(time.Second)
}

func matrixBatch(metricID string, from, to time.Time, matrix model.Matrix) history.Batch {
	batch := history.Batch{
		Metric: metricID,
		FromTs: unixSeconds(from),
		ToTs:   unixSeconds(to),
		Points: []history.RawPoint{},
	}
	if len(matrix) == 0 {
		return batch
	}
	if len(matrix) > 1 {
		log.Printf("prometheus query for %s returned %d series, charting %s", metricID, len(matrix), matrix[0].Metric)
	}
	for _, sp := range matrix[0].Values {
		// NaN and Inf stay in the batch; the sample filter drops them.
		batch.Points = append(batch.Points, history.RawPoint{
			float64(sp.Timestamp) / 1000,
			float64(sp.Value),
		})
	}
	return batch
}
