package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomek7667/serachart/internal/history"
)

const (
	HostCPUTemp = "host_cpu_temp"
	HostCPULoad = "host_cpu_load"
	HostMemUsed = "host_mem_used"
)

// HostMetrics describes the controller's own telemetry for the catalog.
var HostMetrics = []history.MetricSpec{
	{ID: HostCPUTemp, Label: "Controller CPU temperature", Unit: "°C", Precision: 1, DisplayRange: &history.ValueRange{Min: 0, Max: 90}},
	{ID: HostCPULoad, Label: "Controller CPU load", Unit: "%", Precision: 1, DisplayRange: &history.ValueRange{Min: 0, Max: 100}},
	{ID: HostMemUsed, Label: "Controller memory used", Unit: "%", Precision: 1, DisplayRange: &history.ValueRange{Min: 0, Max: 100}},
}

const (
	hostSampleInterval = 30 * time.Second
	hostIPTTL          = 5 * time.Minute
	historyMaxAge      = 7 * 24 * time.Hour
	historyMaxPoints   = int(historyMaxAge / hostSampleInterval)
)

type HostInfo struct {
	BoardModel     string     `json:"boardModel"`
	CPUModel       string     `json:"cpuModel"`
	HostIP         string     `json:"hostIp"`
	UpdatedAt      int64      `json:"updatedAt"`
	CPUTempC       *float64   `json:"cpuTempC,omitempty"`
	CPUPercent     *float64   `json:"cpuPercent,omitempty"`
	MemUsedPercent *float64   `json:"memUsedPercent,omitempty"`
	Load           [3]float64 `json:"load"`
	Samples        int        `json:"samples"`
	Errors         HostErrors `json:"errors"`
}

type HostErrors struct {
	CPU    string `json:"cpu,omitempty"`
	Memory string `json:"memory,omitempty"`
	HostIP string `json:"hostIp,omitempty"`
}

type hostPoint struct {
	Time int64 // unix millis
	Temp *float64
	CPU  *float64
	Mem  *float64
}

// Host samples the machine serachart runs on into a ring covering the
// longest history window. Readings that fail are stored as gaps.
type Host struct {
	mu      sync.RWMutex
	info    HostInfo
	history []hostPoint

	// CPU percent is derived from deltas between successive samples.
	prevTotal   float64
	prevIdle    float64
	havePrevCPU bool

	boardModel         string
	boardModelResolved bool
	cpuModel           string
	cpuModelResolved   bool

	hostIP          string
	hostIPUpdatedAt time.Time
	hostIPErr       error
}

func NewHost() *Host {
	return &Host{}
}

func (h *Host) Start(stop <-chan struct{}) {
	h.update()
	ticker := time.NewTicker(hostSampleInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.update()
			}
		}
	}()
}

func (h *Host) Info() HostInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	info := h.info
	info.Samples = len(h.history)
	return info
}

func (h *Host) update() {
	now := time.Now()
	var errs HostErrors

	if h.hostIP == "" || now.Sub(h.hostIPUpdatedAt) >= hostIPTTL {
		h.hostIP, h.hostIPErr = preferredHostIP()
		h.hostIPUpdatedAt = now
	}
	if h.hostIPErr != nil {
		errs.HostIP = h.hostIPErr.Error()
	}

	var cpuErrs []string
	cpuPercent, err := h.sampleCPUPercent()
	if err != nil {
		cpuErrs = append(cpuErrs, err.Error())
	}
	temp, err := sampleCPUTemperatureC()
	if err != nil && !isTemperatureUnavailable(err) {
		cpuErrs = append(cpuErrs, fmt.Sprintf("cpu temp: %v", err))
	}
	load, err := sampleLoadAverage()
	if err != nil {
		cpuErrs = append(cpuErrs, fmt.Sprintf("load: %v", err))
	}
	if len(cpuErrs) > 0 {
		errs.CPU = strings.Join(cpuErrs, "; ")
	}

	mem, err := sampleMemoryPercent()
	if err != nil {
		errs.Memory = err.Error()
	}

	info := HostInfo{
		BoardModel:     h.boardModelName(),
		CPUModel:       h.cpuModelName(),
		HostIP:         h.hostIP,
		UpdatedAt:      now.UnixMilli(),
		CPUTempC:       temp,
		CPUPercent:     cpuPercent,
		MemUsedPercent: mem,
		Load:           load,
		Errors:         errs,
	}

	h.mu.Lock()
	h.info = info
	h.appendHistoryLocked(hostPoint{Time: info.UpdatedAt, Temp: temp, CPU: cpuPercent, Mem: mem})
	h.mu.Unlock()
}

func (h *Host) appendHistoryLocked(p hostPoint) {
	h.history = append(h.history, p)

	cutoff := p.Time - historyMaxAge.Milliseconds()
	trim := 0
	for trim < len(h.history) && h.history[trim].Time < cutoff {
		trim++
	}
	if len(h.history)-trim > historyMaxPoints {
		trim = len(h.history) - historyMaxPoints
	}
	if trim > 0 {
		h.history = append([]hostPoint(nil), h.history[trim:]...)
	}
}

func (h *Host) History(_ context.Context, metricID string, from, to time.Time) (history.Batch, error) {
	var pick func(hostPoint) *float64
	switch metricID {
	case HostCPUTemp:
		pick = func(p hostPoint) *float64 { return p.Temp }
	case HostCPULoad:
		pick = func(p hostPoint) *float64 { return p.CPU }
	case HostMemUsed:
		pick = func(p hostPoint) *float64 { return p.Mem }
	default:
		return history.Batch{}, fmt.Errorf("%s: %w", metricID, ErrUnknownMetric)
	}

	lo, hi := from.UnixMilli(), to.UnixMilli()
	batch := history.Batch{
		Metric: metricID,
		FromTs: unixSeconds(from),
		ToTs:   unixSeconds(to),
		Points: []history.RawPoint{},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.history {
		if p.Time < lo || p.Time > hi {
			continue
		}
		var v any
		if x := pick(p); x != nil {
			v = *x
		}
		batch.Points = append(batch.Points, history.RawPoint{float64(p.Time) / 1000, v})
	}
	return batch, nil
}
