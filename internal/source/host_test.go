package source

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/tomek7667/serachart/internal/history"
)

func f64(v float64) *float64 { return &v }

func TestHostHistoryPerMetric(t *testing.T) {
	h := NewHost()
	h.appendHistoryLocked(hostPoint{Time: 1_000_000, Temp: f64(48.5), CPU: nil, Mem: f64(40)})
	h.appendHistoryLocked(hostPoint{Time: 1_030_000, Temp: nil, CPU: f64(12.5), Mem: f64(41)})
	h.appendHistoryLocked(hostPoint{Time: 1_060_000, Temp: f64(49), CPU: f64(15), Mem: f64(42)})

	cases := []struct {
		metric string
		want   []history.Sample
	}{
		{HostCPUTemp, []history.Sample{{Timestamp: 1000, Value: 48.5}, {Timestamp: 1060, Value: 49}}},
		{HostCPULoad, []history.Sample{{Timestamp: 1030, Value: 12.5}, {Timestamp: 1060, Value: 15}}},
		{HostMemUsed, []history.Sample{{Timestamp: 1000, Value: 40}, {Timestamp: 1030, Value: 41}, {Timestamp: 1060, Value: 42}}},
	}
	for _, tc := range cases {
		b, err := h.History(context.Background(), tc.metric, time.Unix(0, 0), time.Unix(5000, 0))
		if err != nil {
			t.Fatalf("%s: %v", tc.metric, err)
		}
		if len(b.Points) != 3 {
			t.Fatalf("%s: gaps must stay in the batch, got %d points", tc.metric, len(b.Points))
		}
		if got := history.Filter(b.Points); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.metric, got, tc.want)
		}
	}

	b, _ := h.History(context.Background(), HostMemUsed, time.Unix(1010, 0), time.Unix(1040, 0))
	if len(b.Points) != 1 {
		t.Fatalf("window should keep one point, got %d", len(b.Points))
	}
	if _, err := h.History(context.Background(), "lux", time.Unix(0, 0), time.Unix(1, 0)); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestHostHistoryIsBounded(t *testing.T) {
	h := NewHost()
	step := hostSampleInterval.Milliseconds()
	for i := 0; i < historyMaxPoints+10; i++ {
		h.appendHistoryLocked(hostPoint{Time: int64(i) * step / 2})
	}
	if len(h.history) != historyMaxPoints {
		t.Fatalf("ring should hold %d points, got %d", historyMaxPoints, len(h.history))
	}

	last := h.history[len(h.history)-1].Time
	h.appendHistoryLocked(hostPoint{Time: last + historyMaxAge.Milliseconds() + 1})
	if len(h.history) != 1 {
		t.Fatalf("points older than the max age should be dropped, got %d", len(h.history))
	}
}

func TestHostMetricsAreCatalogued(t *testing.T) {
	c := history.DefaultCatalog().With(HostMetrics...)
	for _, id := range []string{HostCPUTemp, HostCPULoad, HostMemUsed} {
		if _, ok := c.Lookup(id); !ok {
			t.Fatalf("%s missing from the extended catalog", id)
		}
	}
	if got := c.Format(52.34, HostCPUTemp); got != "52.3 °C" {
		t.Fatalf("format %q", got)
	}
}

func TestIPRank(t *testing.T) {
	ips := []string{"8.8.8.8", "10.0.0.2", "192.168.5.9", "192.168.1.20"}
	for i := 1; i < len(ips); i++ {
		lo, hi := net.ParseIP(ips[i-1]).To4(), net.ParseIP(ips[i]).To4()
		if ipRank(hi) <= ipRank(lo) {
			t.Fatalf("%s should rank above %s", ips[i], ips[i-1])
		}
	}
	if addrIPv4(&net.IPNet{IP: net.ParseIP("127.0.0.1")}) != nil {
		t.Fatalf("loopback must be skipped")
	}
	if addrIPv4(&net.IPNet{IP: net.ParseIP("fe80::1")}) != nil {
		t.Fatalf("ipv6 must be skipped")
	}
}
