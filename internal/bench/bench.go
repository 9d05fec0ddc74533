// Package bench times candidate models and summarises classification runs.
package bench

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"prodclass/internal/runtime"
)

// Prompt is the fixed input every candidate model answers.
const Prompt = "iPhone 15 Pro Max 256GB - Apple smartphone with the A17 Pro chip"

// DefaultBound limits each candidate's answer time.
const DefaultBound = 30 * time.Second

// Status of one benchmark entry.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Generator is the runtime call being timed.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Entry is the benchmark outcome for one model. Elapsed is the bound for
// timeouts and zero for errors.
type Entry struct {
	Model   string
	Elapsed time.Duration
	Status  Status
	Preview string
	Err     string
}

// Models runs Prompt through each model in turn. Runs are sequential so the
// timings do not compete for the GPU.
func Models(ctx context.Context, g Generator, models []string, bound time.Duration, log zerolog.Logger) []Entry {
	if bound <= 0 {
		bound = DefaultBound
	}
	out := make([]Entry, 0, len(models))
	for _, m := range models {
		out = append(out, one(ctx, g, m, bound, log))
	}
	return out
}

func one(ctx context.Context, g Generator, model string, bound time.Duration, log zerolog.Logger) Entry {
	ctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	start := time.Now()
	resp, err := g.Generate(ctx, model, Prompt)
	elapsed := time.Since(start)
	e := Entry{Model: model}
	switch {
	case err == nil:
		e.Status, e.Elapsed, e.Preview = StatusOK, elapsed, preview(resp, 100)
	case runtime.IsTimeout(err) || ctx.Err() == context.DeadlineExceeded:
		e.Status, e.Elapsed, e.Err = StatusTimeout, bound, err.Error()
	default:
		e.Status, e.Err = StatusError, err.Error()
	}
	log.Info().Str("model", model).Str("status", string(e.Status)).Dur("dur", e.Elapsed).Msg("benchmark finished")
	return e
}

// Fastest returns the successful entry with the lowest elapsed time.
func Fastest(entries []Entry) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range entries {
		if e.Status != StatusOK {
			continue
		}
		if !found || e.Elapsed < best.Elapsed {
			best, found = e, true
		}
	}
	return best, found
}

// PrintSummary writes one line per entry and the recommendation.
func PrintSummary(w io.Writer, entries []Entry) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "BENCHMARK SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for _, e := range entries {
		fmt.Fprintf(w, "%-8s %-32s %6.2fs\n", e.Status, e.Model, e.Elapsed.Seconds())
	}
	if best, ok := Fastest(entries); ok {
		fmt.Fprintf(w, "\nrecommended model: %s (%.2fs)\n", best.Model, best.Elapsed.Seconds())
	} else {
		fmt.Fprintln(w, "\nno model answered successfully")
	}
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
