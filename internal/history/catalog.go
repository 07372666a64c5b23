package history

import (
	"math"
	"strconv"
	"strings"
)

const noValue = "--"

// ValueRange is a fixed vertical band used for drawing instead of the data range.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type MetricSpec struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	Unit         string      `json:"unit"`
	Precision    int         `json:"precision"`
	RawCount     bool        `json:"rawCount"`
	DisplayRange *ValueRange `json:"displayRange,omitempty"`
}

// temperatureBand keeps temperature charts comparable between renders.
var temperatureBand = ValueRange{Min: 0, Max: 45}

var greenhouseMetrics = []MetricSpec{
	{ID: "dht_temp", Label: "DHT22 temperature", Unit: "°C", Precision: 1, DisplayRange: &temperatureBand},
	{ID: "dht_hum", Label: "DHT22 humidity", Unit: "%", Precision: 1},
	{ID: "ds18_temp", Label: "DS18B20 temperature", Unit: "°C", Precision: 1, DisplayRange: &temperatureBand},
	{ID: "lux", Label: "Illuminance", Unit: "lx", Precision: 1},
	{ID: "soil_ch0", Label: "Soil CH0", Unit: "raw", RawCount: true},
	{ID: "soil_ch1", Label: "Soil CH1", Unit: "raw", RawCount: true},
	{ID: "soil_ch2", Label: "Soil CH2", Unit: "raw", RawCount: true},
	{ID: "soil_ch3", Label: "Soil CH3", Unit: "raw", RawCount: true},
}

// Catalog is an immutable metric registry. Declaration order is kept for listings.
type Catalog struct {
	specs []MetricSpec
	byID  map[string]int
}

func NewCatalog(specs ...MetricSpec) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(specs))}
	for _, s := range specs {
		if s.ID == "" {
			continue
		}
		if idx, ok := c.byID[s.ID]; ok {
			c.specs[idx] = s
			continue
		}
		c.byID[s.ID] = len(c.specs)
		c.specs = append(c.specs, s)
	}
	return c
}

// DefaultCatalog returns the greenhouse controller metrics.
func DefaultCatalog() *Catalog {
	return NewCatalog(greenhouseMetrics...)
}

// With returns a new catalog holding c's metrics followed by specs.
// A spec whose id already exists replaces the earlier entry.
func (c *Catalog) With(specs ...MetricSpec) *Catalog {
	all := make([]MetricSpec, 0, len(c.specs)+len(specs))
	all = append(all, c.specs...)
	all = append(all, specs...)
	return NewCatalog(all...)
}

func (c *Catalog) Lookup(id string) (MetricSpec, bool) {
	if c == nil {
		return MetricSpec{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return MetricSpec{}, false
	}
	return c.specs[idx], true
}

func (c *Catalog) Specs() []MetricSpec {
	if c == nil {
		return nil
	}
	return append([]MetricSpec(nil), c.specs...)
}

// Format renders value in the display units of metric id.
func (c *Catalog) Format(value float64, id string) string {
	spec, ok := c.Lookup(id)
	if !ok {
		spec = MetricSpec{ID: id, Precision: 1}
	}
	return spec.Format(value)
}

func (s MetricSpec) Format(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return noValue
	}
	if s.RawCount {
		// half-up, matching the controller's own rounding of raw ADC counts
		return strconv.FormatFloat(math.Floor(value+0.5), 'f', 0, 64)
	}
	prec := s.Precision
	if prec < 0 {
		prec = 0
	}
	return strings.TrimSpace(strconv.FormatFloat(value, 'f', prec, 64) + " " + s.Unit)
}

// FormatPtr is Format for optional values; nil formats as "--".
func (s MetricSpec) FormatPtr(value *float64) string {
	if value == nil {
		return noValue
	}
	return s.Format(*value)
}

// Clipped counts the points drawn at the edge of the display range because
// their value lies outside it. Metrics without a range clip nothing.
func (s MetricSpec) Clipped(points []Sample) int {
	if s.DisplayRange == nil {
		return 0
	}
	n := 0
	for _, p := range points {
		if p.Value < s.DisplayRange.Min || p.Value > s.DisplayRange.Max {
			n++
		}
	}
	return n
}
