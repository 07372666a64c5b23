package history

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawPoint is one history entry as it arrives on the wire: [timestamp, value|null].
type RawPoint []any

// Timestamp reads the first field; false when it is missing or not a finite number.
func (p RawPoint) Timestamp() (float64, bool) {
	if len(p) == 0 {
		return 0, false
	}
	return toFinite(p[0])
}

type Sample struct {
	Timestamp float64 `json:"ts"`
	Value     float64 `json:"value"`
}

// Batch is the payload of the controller's /api/history endpoint.
type Batch struct {
	Metric string     `json:"metric"`
	FromTs float64    `json:"from_ts,omitempty"`
	ToTs   float64    `json:"to_ts,omitempty"`
	Points []RawPoint `json:"points"`
}

// Filter drops malformed entries and keeps the order of the rest.
// Zero values are kept.
func Filter(raw []RawPoint) []Sample {
	out := make([]Sample, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			continue
		}
		ts, ok := toFinite(p[0])
		if !ok {
			continue
		}
		v, ok := toFinite(p[1])
		if !ok {
			continue
		}
		out = append(out, Sample{Timestamp: ts, Value: v})
	}
	return out
}

func toFinite(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Summary holds the textual readouts shown next to the chart.
type Summary struct {
	Min   string `json:"min"`
	Max   string `json:"max"`
	Last  string `json:"last"`
	Count string `json:"count"`
}

// Summarize formats min, max and last over the true values, ignoring any display band.
func Summarize(points []Sample, catalog *Catalog, metricID string) Summary {
	if len(points) == 0 {
		return Summary{Min: noValue, Max: noValue, Last: noValue, Count: noValue}
	}
	lo, hi := valueBounds(points)
	return Summary{
		Min:   catalog.Format(lo, metricID),
		Max:   catalog.Format(hi, metricID),
		Last:  catalog.Format(points[len(points)-1].Value, metricID),
		Count: strconv.Itoa(len(points)),
	}
}

func valueBounds(points []Sample) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	return lo, hi
}
