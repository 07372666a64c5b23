package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/json"
)

var (
	from = time.Unix(1000, 0)
	to   = time.Unix(2000, 0)
)

func TestBackendDecodesBatch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/history" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"metric":"dht_temp","from_ts":1000,"to_ts":2000,"points":[[1000,18.0],[1010,null],[1020,"NaN"],[1030,19.1]]}`))
	}))
	defer srv.Close()

	b, err := NewBackend(srv.URL + "/")
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	batch, err := b.History(context.Background(), "dht_temp", from, to)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if gotQuery != "from=1000.000&metric=dht_temp&to=2000.000" {
		t.Fatalf("query %q", gotQuery)
	}
	if batch.Metric != "dht_temp" || batch.FromTs != 1000 || batch.ToTs != 2000 {
		t.Fatalf("header %+v", batch)
	}
	want := []history.Sample{{Timestamp: 1000, Value: 18}, {Timestamp: 1030, Value: 19.1}}
	if got := history.Filter(batch.Points); !reflect.DeepEqual(got, want) {
		t.Fatalf("samples: got %v want %v", got, want)
	}
}

func TestBackendErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown metric"}`))
	}))
	defer srv.Close()

	b, err := NewBackend(srv.URL)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	_, err = b.History(context.Background(), "nope", from, to)
	if err == nil || !strings.Contains(err.Error(), "unknown metric") {
		t.Fatalf("expected the controller's message, got %v", err)
	}
}

func TestNewBackendRejectsRelativeURL(t *testing.T) {
	for _, u := range []string{"", "controller.local", "/api"} {
		if _, err := NewBackend(u); err == nil {
			t.Fatalf("url %q should be rejected", u)
		}
	}
}

func TestPrometheusRangeQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/query_range":
			gotQuery = r.Form.Get("query")
			w.Write([]byte(`{"status":"success","data":{"resultType":"matrix","result":[` +
				`{"metric":{"__name__":"greenhouse_lux"},"values":[[1000,"120"],[1015,"NaN"],[1030,"130.5"]]}]}}`))
		case "/api/v1/query":
			w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, err := NewPrometheus(srv.URL, map[string]string{"lux": "greenhouse_lux"})
	if err != nil {
		t.Fatalf("new prometheus: %v", err)
	}
	if err := p.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	batch, err := p.History(context.Background(), "lux", from, to)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if gotQuery != "greenhouse_lux" {
		t.Fatalf("query %q", gotQuery)
	}
	if len(batch.Points) != 3 {
		t.Fatalf("expected every pair in the batch, got %d", len(batch.Points))
	}
	want := []history.Sample{{Timestamp: 1000, Value: 120}, {Timestamp: 1030, Value: 130.5}}
	if got := history.Filter(batch.Points); !reflect.DeepEqual(got, want) {
		t.Fatalf("samples: got %v want %v", got, want)
	}

	if _, err := p.History(context.Background(), "dht_temp", from, to); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestRangeStep(t *testing.T) {
	if got := rangeStep(from, from.Add(time.Hour)); got != prometheusMinStep {
		t.Fatalf("short ranges use the minimum step, got %v", got)
	}
	week := 7 * 24 * time.Hour
	if got := rangeStep(from, from.Add(week)); got != (week / prometheusMaxSteps).Truncate(time.Second) {
		t.Fatalf("week step %v", got)
	}
}

type fixedSource struct {
	name string
}

func (f fixedSource) History(_ context.Context, metricID string, _, _ time.Time) (history.Batch, error) {
	return history.Batch{Metric: f.name + ":" + metricID}, nil
}

func TestRouter(t *testing.T) {
	r := NewRouter(fixedSource{"backend"})
	r.Handle(HostCPULoad, fixedSource{"host"})

	b, _ := r.History(context.Background(), HostCPULoad, from, to)
	if b.Metric != "host:host_cpu_load" {
		t.Fatalf("routed to %q", b.Metric)
	}
	b, _ = r.History(context.Background(), "lux", from, to)
	if b.Metric != "backend:lux" {
		t.Fatalf("fallback got %q", b.Metric)
	}

	empty := NewRouter(nil)
	if _, err := empty.History(context.Background(), "lux", from, to); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestFileTrimsToWindow(t *testing.T) {
	store, err := json.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	err = store.SaveBatch(history.Batch{
		Metric: "soil_ch0",
		Points: []history.RawPoint{{900.0, 1}, {1000.0, 2}, {1500.0, nil}, {2000.0, 3}, {2100.0, 4}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f := NewFile(store)
	batch, err := f.History(context.Background(), "soil_ch0", from, to)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []history.Sample{{Timestamp: 1000, Value: 2}, {Timestamp: 2000, Value: 3}}
	if got := history.Filter(batch.Points); !reflect.DeepEqual(got, want) {
		t.Fatalf("samples: got %v want %v", got, want)
	}
	if _, err := f.History(context.Background(), "lux", from, to); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}
