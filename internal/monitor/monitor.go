// Package monitor samples host CPU, memory and GPU usage in the background
// and exposes the most recent reading.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"prodclass/pkg/types"
)

const bytesPerGB = 1024 * 1024 * 1024

// Defaults applied when the corresponding options are unset.
const (
	defaultInterval = time.Second
	defaultBackoff  = 2 * time.Second
)

// Monitor runs a sampling loop between Start and Stop. The latest snapshot
// is swapped in atomically; readers never block on the loop.
type Monitor struct {
	host     HostSampler
	gpu      GPUProber
	interval time.Duration
	backoff  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	snap atomic.Pointer[types.ResourceSnapshot]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the pause between successful samples.
func WithInterval(d time.Duration) Option { return func(m *Monitor) { m.interval = d } }

// WithBackoff sets the pause after a failed sample.
func WithBackoff(d time.Duration) Option { return func(m *Monitor) { m.backoff = d } }

// WithLogger sets the logger used for sampling warnings.
func WithLogger(l zerolog.Logger) Option { return func(m *Monitor) { m.log = l } }

// New returns a stopped Monitor. gpu may be nil when GPU data is not wanted.
func New(host HostSampler, gpu GPUProber, opts ...Option) *Monitor {
	m := &Monitor{
		host:     host,
		gpu:      gpu,
		interval: defaultInterval,
		backoff:  defaultBackoff,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	if m.interval <= 0 {
		m.interval = defaultInterval
	}
	if m.backoff <= 0 {
		m.backoff = defaultBackoff
	}
	return m
}

// Start launches the sampling loop. Calling Start on a running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)
	m.log.Debug().Dur("interval", m.interval).Msg("resource monitor started")
}

// Stop asks the loop to finish and waits for it. The last snapshot stays
// readable after Stop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Debug().Msg("resource monitor stopped")
}

// Running reports whether the sampling loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Stats returns the most recent snapshot, or the zero snapshot when no
// sample has completed yet.
func (m *Monitor) Stats() types.ResourceSnapshot {
	p := m.snap.Load()
	if p == nil {
		return types.ResourceSnapshot{}
	}
	s := *p
	s.GPUInfo = append([]types.GPUInfo(nil), p.GPUInfo...)
	return s
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		wait := m.interval
		snap, err := m.sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			sampleErrorsTotal.Inc()
			m.log.Warn().Err(err).Dur("backoff", m.backoff).Msg("resource sampling failed")
			wait = m.backoff
		} else {
			m.snap.Store(&snap)
			observe(snap)
		}
		t.Reset(wait)
	}
}

// sample takes one reading. Panics inside samplers are turned into errors so
// the loop keeps running.
func (m *Monitor) sample(ctx context.Context) (snap types.ResourceSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sampler panic: %v", r)
		}
	}()
	hs, err := m.host.Sample(ctx)
	if err != nil {
		return snap, err
	}
	var gpus []types.GPUInfo
	if m.gpu != nil {
		gpus = m.gpu.Probe(ctx)
	}
	return types.ResourceSnapshot{
		CPUPercent: hs.CPUPercent,
		RAMPercent: hs.RAMPercent,
		RAMUsedGB:  float64(hs.RAMUsedBytes) / bytesPerGB,
		RAMTotalGB: float64(hs.RAMTotalBytes) / bytesPerGB,
		GPUInfo:    gpus,
		Timestamp:  m.now(),
	}, nil
}
