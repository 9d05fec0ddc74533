package monitor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"prodclass/pkg/types"
)

var (
	cpuPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prodclass",
		Subsystem: "monitor",
		Name:      "cpu_percent",
		Help:      "Host CPU utilisation over the last sample window",
	})

	ramPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prodclass",
		Subsystem: "monitor",
		Name:      "ram_percent",
		Help:      "Share of host memory in use",
	})

	ramUsedBytesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "prodclass",
		Subsystem: "monitor",
		Name:      "ram_used_bytes",
		Help:      "Host memory in use in bytes",
	})

	gpuUtilizationGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "prodclass",
			Subsystem: "monitor",
			Name:      "gpu_utilization_percent",
			Help:      "GPU utilisation reported by the GPU query tool",
		},
		[]string{"gpu", "name"},
	)

	gpuMemoryUsedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "prodclass",
			Subsystem: "monitor",
			Name:      "gpu_memory_used_bytes",
			Help:      "GPU memory in use in bytes",
		},
		[]string{"gpu", "name"},
	)

	sampleErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "prodclass",
		Subsystem: "monitor",
		Name:      "sample_errors_total",
		Help:      "Resource samples that failed and triggered a backoff",
	})
)

func init() {
	prometheus.MustRegister(cpuPercentGauge, ramPercentGauge, ramUsedBytesGauge,
		gpuUtilizationGauge, gpuMemoryUsedGauge, sampleErrorsTotal)
}

func observe(s types.ResourceSnapshot) {
	cpuPercentGauge.Set(s.CPUPercent)
	ramPercentGauge.Set(s.RAMPercent)
	ramUsedBytesGauge.Set(s.RAMUsedGB * bytesPerGB)
	gpuUtilizationGauge.Reset()
	gpuMemoryUsedGauge.Reset()
	// Identical cards share a name; the index keeps their series apart.
	for i, g := range s.GPUInfo {
		idx := strconv.Itoa(i)
		gpuUtilizationGauge.WithLabelValues(idx, g.Name).Set(float64(g.UtilizationPercent))
		gpuMemoryUsedGauge.WithLabelValues(idx, g.Name).Set(float64(g.MemoryUsedMB) * 1024 * 1024)
	}
}
