package history

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestFilterDropsMalformed(t *testing.T) {
	raw := []RawPoint{
		{1000.0, 18.0},
		nil,
		{1005.0},
		{1010.0, nil},
		{1015.0, math.NaN()},
		{1020.0, 0.0},
		{1025.0, "19.5"},
		{1030.0, "n/a"},
		{"bad", 1.0},
		{1035.0, math.Inf(-1)},
		{1040, 7},
		{1045.0, true},
	}
	got := Filter(raw)
	want := []Sample{
		{1000, 18},
		{1020, 0},
		{1025, 19.5},
		{1040, 7},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestFilterKeepsRelativeOrder(t *testing.T) {
	raw := []RawPoint{
		{30.0, 3.0},
		{10.0, nil},
		{20.0, 2.0},
		{5.0, 1.0},
	}
	got := Filter(raw)
	if len(got) != 3 || got[0].Timestamp != 30 || got[1].Timestamp != 20 || got[2].Timestamp != 5 {
		t.Fatalf("filter must not reorder: %+v", got)
	}
}

func TestFilterDecodedJSON(t *testing.T) {
	payload := `{"metric":"dht_temp","from_ts":1000,"to_ts":1030,"points":[[1000,18.0],[1010,18.4],[1020,null],[1030,19.1]]}`
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var b Batch
	if err := dec.Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := Filter(b.Points)
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	if got[2].Value != 19.1 {
		t.Fatalf("last value %v", got[2].Value)
	}
}

func TestSummarize(t *testing.T) {
	c := DefaultCatalog()
	points := Filter([]RawPoint{{1000.0, 18.0}, {1010.0, 18.4}, {1020.0, nil}, {1030.0, 19.1}})
	s := Summarize(points, c, "dht_temp")
	want := Summary{Min: "18.0 °C", Max: "19.1 °C", Last: "19.1 °C", Count: "3"}
	if s != want {
		t.Fatalf("summary %+v want %+v", s, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, DefaultCatalog(), "dht_temp")
	if s.Min != "--" || s.Max != "--" || s.Last != "--" || s.Count != "--" {
		t.Fatalf("empty summary %+v", s)
	}
}

func TestSummarizeUsesTrueValuesForBandedMetric(t *testing.T) {
	points := []Sample{{0, 20}, {10, 100}, {20, -5}}
	s := Summarize(points, DefaultCatalog(), "ds18_temp")
	if s.Max != "100.0 °C" || s.Min != "-5.0 °C" {
		t.Fatalf("expected unclamped readouts, got %+v", s)
	}
}
