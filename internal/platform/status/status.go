// Package status reports ledger sizes and host load for GET /status.
package status

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CountFunc returns the current size of one component.
type CountFunc func(ctx context.Context) (int, error)

type HostMetrics struct {
	CPULoadPercent float64 `json:"cpu_load_percent"`
	MemoryUsedPct  float64 `json:"memory_used_percent"`
	MemoryTotalMB  float64 `json:"memory_total_mb"`
	ProcessAllocMB float64 `json:"process_alloc_mb"`
	Goroutines     int     `json:"goroutines"`
}

type Report struct {
	Backend       string         `json:"backend"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Counts        map[string]int `json:"counts"`
	Errors        []string       `json:"errors,omitempty"`
	Host          HostMetrics    `json:"host"`
}

type Reporter struct {
	backend string
	started time.Time
	counts  map[string]CountFunc
}

func NewReporter(backend string, counts map[string]CountFunc) *Reporter {
	return &Reporter{backend: backend, started: time.Now(), counts: counts}
}

// Collect gathers every count. A failing counter is reported by name and
// does not abort the rest.
func (r *Reporter) Collect(ctx context.Context) *Report {
	rep := &Report{
		Backend:       r.backend,
		UptimeSeconds: int64(time.Since(r.started).Seconds()),
		Counts:        make(map[string]int, len(r.counts)),
		Host:          hostMetrics(),
	}

	names := make([]string, 0, len(r.counts))
	for name := range r.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n, err := r.counts[name](ctx)
		if err != nil {
			rep.Errors = append(rep.Errors, name+": "+err.Error())
			continue
		}
		rep.Counts[name] = n
	}
	return rep
}

func (r *Reporter) Handler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return c.JSON(http.StatusOK, r.Collect(ctx))
}

func hostMetrics() HostMetrics {
	var h HostMetrics
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		h.CPULoadPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.MemoryUsedPct = vm.UsedPercent
		h.MemoryTotalMB = float64(vm.Total) / (1024 * 1024)
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	h.ProcessAllocMB = float64(ms.Alloc) / (1024 * 1024)
	h.Goroutines = runtime.NumGoroutine()
	return h
}
