package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"prodclass/internal/classifier"
)

const recordTimeout = 5 * time.Second

// Recorder stores classification events. It satisfies
// classifier.EventPublisher; write failures are logged, not returned.
type Recorder struct {
	Store *Store
	Log   zerolog.Logger
}

// NewRecorder returns a Recorder writing to s.
func NewRecorder(s *Store, l zerolog.Logger) *Recorder { return &Recorder{Store: s, Log: l} }

func (r *Recorder) Publish(e classifier.Event) {
	var mode string
	switch e.Name {
	case classifier.EventClassifyDone, classifier.EventClassifyError:
		mode = "single"
	case classifier.EventBatchDone, classifier.EventBatchError:
		mode = "batch"
	default:
		return
	}
	run := Run{Mode: mode, Model: e.Model, StartedAt: time.Now().Add(-e.Elapsed), Elapsed: e.Elapsed, Results: e.Results}
	if name, ok := e.Fields["product"].(string); ok {
		run.Products = []string{name}
	}
	if names, ok := e.Fields["products"].([]string); ok {
		run.Products = names
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	id, err := r.Store.RecordRun(ctx, run)
	if err != nil {
		r.Log.Error().Err(err).Str("event", e.Name).Msg("history write failed")
		return
	}
	r.Log.Debug().Str("run_id", id).Str("mode", mode).Int("results", len(e.Results)).Msg("run recorded")
}
