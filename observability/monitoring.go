package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitorWorker periodically logs process and Go runtime statistics. It is
// supervised like any other worker and purely informational.
type MonitorWorker struct {
	log      *slog.Logger
	interval time.Duration
}

func NewMonitorWorker(log *slog.Logger, interval time.Duration) *MonitorWorker {
	return &MonitorWorker{log: log, interval: interval}
}

func (w *MonitorWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping monitor worker")
			return ctx.Err()
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *MonitorWorker) report(proc *process.Process) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	attrs := []any{
		"goroutines", runtime.NumGoroutine(),
		"alloc_mb", m.Alloc / 1024 / 1024,
		"num_gc", m.NumGC,
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		attrs = append(attrs, "rss_mb", mem.RSS/1024/1024)
	}

	w.log.Info("Process stats", attrs...)
}
