package source

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// sampleCPUPercent returns nil on the first call, when there is no previous
// sample to diff against.
func (h *Host) sampleCPUPercent() (*float64, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return nil, fmt.Errorf("cpu times: %w", err)
	}
	if len(times) == 0 {
		return nil, nil
	}

	t := times[0]
	total := cpuTimesTotal(t)
	idle := t.Idle + t.Iowait

	if !h.havePrevCPU {
		h.prevTotal, h.prevIdle = total, idle
		h.havePrevCPU = true
		return nil, nil
	}

	totalDelta := total - h.prevTotal
	idleDelta := idle - h.prevIdle
	h.prevTotal, h.prevIdle = total, idle

	if totalDelta <= 0 {
		return nil, nil
	}
	usage := math.Max(0, math.Min(100, (totalDelta-idleDelta)/totalDelta*100))
	return &usage, nil
}

func cpuTimesTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal + t.Guest + t.GuestNice
}

// sampleCPUTemperatureC picks the sensor that most looks like the CPU
// package; on a Pi that is usually cpu_thermal.
func sampleCPUTemperatureC() (*float64, error) {
	temps, err := host.SensorsTemperatures()
	if err != nil && len(temps) == 0 {
		return nil, err
	}

	var best *float64
	bestScore := -1
	bestTemp := -1.0
	for _, t := range temps {
		temp := t.Temperature
		if temp <= 0 || math.IsNaN(temp) || math.IsInf(temp, 0) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(t.SensorKey))
		score := 0
		switch {
		case strings.Contains(key, "package"):
			score += 50
		case strings.Contains(key, "tctl"), strings.Contains(key, "tdie"):
			score += 40
		case strings.Contains(key, "cpu_thermal"):
			score += 30
		}
		if strings.Contains(key, "coretemp") || strings.Contains(key, "k10temp") {
			score += 20
		}
		if strings.Contains(key, "cpu") {
			score += 10
		}
		if score > bestScore || (score == bestScore && temp > bestTemp) {
			v := temp
			best = &v
			bestScore, bestTemp = score, temp
		}
	}
	return best, nil
}

func isTemperatureUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not implemented") || strings.Contains(msg, "not supported")
}

func sampleLoadAverage() ([3]float64, error) {
	avg, err := load.Avg()
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{avg.Load1, avg.Load5, avg.Load15}, nil
}

func sampleMemoryPercent() (*float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	if vm == nil {
		return nil, nil
	}
	used := vm.UsedPercent
	return &used, nil
}

// boardModelName prefers the device tree model (Raspberry Pi and other SBCs)
// and falls back to the DMI product reported by ghw.
func (h *Host) boardModelName() string {
	if h.boardModelResolved {
		return h.boardModel
	}
	h.boardModelResolved = true

	if runtime.GOOS == "linux" {
		for _, p := range []string{
			"/proc/device-tree/model",
			"/sys/firmware/devicetree/base/model",
		} {
			if b, err := os.ReadFile(p); err == nil {
				model := strings.TrimRight(strings.TrimSpace(string(b)), "\x00")
				if model != "" {
					h.boardModel = model
					return h.boardModel
				}
			}
		}
	}

	info, err := ghw.Product()
	if err != nil || info == nil {
		return h.boardModel
	}
	var parts []string
	for _, s := range []string{info.Vendor, info.Name} {
		s = strings.TrimSpace(s)
		if s != "" && !strings.EqualFold(s, "unknown") {
			parts = append(parts, s)
		}
	}
	h.boardModel = strings.Join(parts, " ")
	return h.boardModel
}

func (h *Host) cpuModelName() string {
	if h.cpuModelResolved {
		return h.cpuModel
	}
	h.cpuModelResolved = true
	info, err := cpu.Info()
	if err == nil && len(info) > 0 {
		h.cpuModel = strings.TrimSpace(info[0].ModelName)
	}
	return h.cpuModel
}
