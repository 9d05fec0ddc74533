package monitor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"prodclass/internal/runtime"
	"prodclass/pkg/types"
)

// GPUProber reports per-GPU usage. An empty result means no GPU data; the
// tool being absent and the tool failing are not distinguished.
type GPUProber interface {
	Probe(ctx context.Context) []types.GPUInfo
}

// gpuQueryArgs is the fixed query passed to the GPU tool.
var gpuQueryArgs = []string{
	"--query-gpu=name,memory.used,memory.total,utilization.gpu",
	"--format=csv,noheader,nounits",
}

// NvidiaSMI queries GPUs through the nvidia-smi CLI.
type NvidiaSMI struct {
	Bin     string
	Runner  runtime.Runner
	Timeout time.Duration
}

// NewNvidiaSMI returns a prober for bin with a five second timeout. An empty
// bin disables GPU probing.
func NewNvidiaSMI(bin string, r runtime.Runner) *NvidiaSMI {
	return &NvidiaSMI{Bin: bin, Runner: r, Timeout: 5 * time.Second}
}

func (n *NvidiaSMI) Probe(ctx context.Context) []types.GPUInfo {
	if n == nil || n.Bin == "" || n.Runner == nil {
		return nil
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	out, err := n.Runner.Run(ctx, n.Bin, gpuQueryArgs...)
	if err != nil || out.ExitCode != 0 {
		return nil
	}
	return ParseGPUCSV(out.Stdout)
}

// ParseGPUCSV parses "name, used, total, util" lines. Lines with fewer than
// four fields are skipped; a non-numeric field discards the whole reading.
func ParseGPUCSV(s string) []types.GPUInfo {
	var gpus []types.GPUInfo
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ", ")
		if len(parts) < 4 {
			continue
		}
		var nums [3]int
		for i := range nums {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i+1]))
			if err != nil {
				return nil
			}
			nums[i] = v
		}
		gpus = append(gpus, types.GPUInfo{
			Name:               strings.TrimSpace(parts[0]),
			MemoryUsedMB:       nums[0],
			MemoryTotalMB:      nums[1],
			UtilizationPercent: nums[2],
		})
	}
	return gpus
}
