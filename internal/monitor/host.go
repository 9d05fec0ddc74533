package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// HostStats is one CPU and memory reading.
type HostStats struct {
	CPUPercent    float64
	RAMPercent    float64
	RAMUsedBytes  uint64
	RAMTotalBytes uint64
}

// HostSampler takes one host reading. Implementations may block for a
// measurement window but must return early when ctx is done.
type HostSampler interface {
	Sample(ctx context.Context) (HostStats, error)
}

// ProcSampler reads CPU and memory usage from /proc. CPU usage is the busy
// share of jiffies between two reads of /proc/stat taken Window apart.
type ProcSampler struct {
	FS     procfs.FS
	Window time.Duration
}

// NewProcSampler opens the default /proc mount with a one second CPU window.
func NewProcSampler() (*ProcSampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	return &ProcSampler{FS: fs, Window: time.Second}, nil
}

func (p *ProcSampler) Sample(ctx context.Context) (HostStats, error) {
	before, err := p.FS.Stat()
	if err != nil {
		return HostStats{}, fmt.Errorf("read stat: %w", err)
	}
	t := time.NewTimer(p.Window)
	select {
	case <-ctx.Done():
		t.Stop()
		return HostStats{}, ctx.Err()
	case <-t.C:
	}
	after, err := p.FS.Stat()
	if err != nil {
		return HostStats{}, fmt.Errorf("read stat: %w", err)
	}
	mi, err := p.FS.Meminfo()
	if err != nil {
		return HostStats{}, fmt.Errorf("read meminfo: %w", err)
	}
	hs := HostStats{CPUPercent: cpuPercent(before.CPUTotal, after.CPUTotal)}
	hs.RAMTotalBytes, hs.RAMUsedBytes = memoryUsage(mi)
	if hs.RAMTotalBytes > 0 {
		hs.RAMPercent = float64(hs.RAMUsedBytes) / float64(hs.RAMTotalBytes) * 100
	}
	return hs, nil
}

// cpuPercent returns busy time over total time between two readings.
func cpuPercent(a, b procfs.CPUStat) float64 {
	total := func(c procfs.CPUStat) float64 {
		return c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
	}
	idle := func(c procfs.CPUStat) float64 { return c.Idle + c.Iowait }
	dt := total(b) - total(a)
	if dt <= 0 {
		return 0
	}
	busy := dt - (idle(b) - idle(a))
	if busy < 0 {
		busy = 0
	}
	return busy / dt * 100
}

// memoryUsage returns total and used bytes; used is total minus available,
// falling back to free+buffers+cached on kernels without MemAvailable.
func memoryUsage(mi procfs.Meminfo) (total, used uint64) {
	kb := func(v *uint64) uint64 {
		if v == nil {
			return 0
		}
		return *v * 1024
	}
	total = kb(mi.MemTotal)
	avail := kb(mi.MemAvailable)
	if mi.MemAvailable == nil {
		avail = kb(mi.MemFree) + kb(mi.Buffers) + kb(mi.Cached)
	}
	if avail > total {
		return total, 0
	}
	return total, total - avail
}
