package cli

import (
	"fmt"

	"prodclass/internal/classifier"
	"prodclass/internal/common/fsutil"
	"prodclass/internal/history"
	"prodclass/internal/monitor"
	"prodclass/internal/runtime"
)

func (a *app) execRunner() runtime.Runner {
	if a.runner != nil {
		return a.runner
	}
	return runtime.NewExecRunner(a.log.With().Str("component", "runtime").Logger())
}

func (a *app) ollama() *runtime.Ollama {
	return runtime.NewOllama(a.cfg.RuntimeBin, a.execRunner())
}

// statsSource returns the resource monitor, or nil when /proc is unavailable.
func (a *app) statsSource() classifier.StatsSource {
	if a.noMonitor {
		return nil
	}
	host, err := monitor.NewProcSampler()
	if err != nil {
		a.log.Warn().Err(err).Msg("resource monitoring disabled")
		return nil
	}
	return monitor.New(host, monitor.NewNvidiaSMI(a.cfg.GPUTool, a.execRunner()),
		monitor.WithInterval(a.cfg.MonitorInterval()),
		monitor.WithBackoff(a.cfg.MonitorBackoff()),
		monitor.WithLogger(a.log.With().Str("component", "monitor").Logger()),
	)
}

type classifierOpts struct {
	progress  bool
	publisher classifier.EventPublisher
}

// newClassifier wires the classifier to the runtime CLI and the monitor.
// The caller must Close it.
func (a *app) newClassifier(o classifierOpts) (*classifier.Classifier, *runtime.Ollama) {
	rt := a.ollama()
	opts := []classifier.Option{classifier.WithLogger(a.log.With().Str("component", "classifier").Logger())}
	if o.progress && a.cfg.SpinnerEnabled() {
		opts = append(opts, classifier.WithProgress(a.stdout))
	}
	if o.publisher != nil {
		opts = append(opts, classifier.WithPublisher(o.publisher))
	}
	c := classifier.New(classifier.Config{
		ModelName:     a.cfg.ModelName,
		Categories:    a.cfg.Categories,
		SingleTimeout: a.cfg.SingleTimeout(),
		BatchTimeout:  a.cfg.BatchTimeout(),
		ModelSizeGB:   a.cfg.ModelSizeGB,
	}, rt, a.statsSource(), opts...)
	return c, rt
}

// openHistory opens the history store at path, or the configured one when
// path is empty. A nil store and nil error mean history is off.
func (a *app) openHistory(path string) (*history.Store, error) {
	if path == "" {
		path = a.cfg.HistoryDB
	}
	if path == "" {
		return nil, nil
	}
	p, err := fsutil.EnsureParent(path)
	if err != nil {
		return nil, err
	}
	s, err := history.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return s, nil
}

// recorder returns a publisher storing runs in s, or nil when s is nil.
func (a *app) recorder(s *history.Store) classifier.EventPublisher {
	if s == nil {
		return nil
	}
	return history.NewRecorder(s, a.log.With().Str("component", "history").Logger())
}
