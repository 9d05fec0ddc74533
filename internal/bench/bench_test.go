package bench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"prodclass/pkg/types"
)

type scriptedGen map[string]func(ctx context.Context) (string, error)

func (s scriptedGen) Generate(ctx context.Context, model, prompt string) (string, error) {
	if prompt != Prompt {
		return "", errors.New("unexpected prompt")
	}
	return s[model](ctx)
}

func TestModelsStatuses(t *testing.T) {
	g := scriptedGen{
		"fast": func(context.Context) (string, error) { return `{"category":"iphone"}`, nil },
		"slow": func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		"broken": func(context.Context) (string, error) { return "", errors.New("model not found") },
	}
	entries := Models(context.Background(), g, []string{"fast", "slow", "broken"}, 30*time.Millisecond, zerolog.Nop())
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	if entries[0].Status != StatusOK || entries[0].Preview != `{"category":"iphone"}` {
		t.Fatalf("fast: %+v", entries[0])
	}
	if entries[1].Status != StatusTimeout || entries[1].Elapsed != 30*time.Millisecond {
		t.Fatalf("slow: %+v", entries[1])
	}
	if entries[2].Status != StatusError || entries[2].Elapsed != 0 || entries[2].Err != "model not found" {
		t.Fatalf("broken: %+v", entries[2])
	}
	best, ok := Fastest(entries)
	if !ok || best.Model != "fast" {
		t.Fatalf("Fastest = %+v, %v", best, ok)
	}
}

func TestFastestIgnoresFailures(t *testing.T) {
	entries := []Entry{
		{Model: "a", Status: StatusOK, Elapsed: 3 * time.Second},
		{Model: "b", Status: StatusError},
		{Model: "c", Status: StatusOK, Elapsed: time.Second},
	}
	if best, _ := Fastest(entries); best.Model != "c" {
		t.Fatalf("want c, got %s", best.Model)
	}
	if _, ok := Fastest(entries[1:2]); ok {
		t.Fatalf("no successful entry should yield ok=false")
	}
	var buf bytes.Buffer
	PrintSummary(&buf, entries)
	if !strings.Contains(buf.String(), "recommended model: c (1.00s)") {
		t.Fatalf("unexpected summary:\n%s", buf.String())
	}
}

func TestSummarize(t *testing.T) {
	results := []types.Result{
		{PredictedCategory: "playstation", Confidence: 0.9, ProcessingTime: 1},
		{PredictedCategory: "unknown", Confidence: 0.2, ProcessingTime: 1},
		{PredictedCategory: "playstation", Confidence: 0.7, ProcessingTime: 1},
		types.ErrorResult("timeout: x"),
	}
	want := []CategoryStat{
		{Category: "playstation", Count: 2, MeanConfidence: 0.8},
		{Category: "unknown", Count: 1, MeanConfidence: 0.2},
	}
	got := Summarize(results)
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 })); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareVerdict(t *testing.T) {
	batch := []types.Result{{ProcessingTime: 0.5}, {ProcessingTime: 0.5}}
	single := []types.Result{{ProcessingTime: 2}, types.ErrorResult("x")}
	msg, ok := Compare(batch, single).Verdict()
	if !ok || msg != "batch is 4.0x faster" {
		t.Fatalf("got %q %v", msg, ok)
	}
	msg, ok = Compare(single, batch).Verdict()
	if !ok || msg != "single classification is 4.0x faster" {
		t.Fatalf("got %q %v", msg, ok)
	}
	if _, ok := Compare(nil, batch).Verdict(); ok {
		t.Fatalf("empty batch run should not compare")
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, []types.Result{{ProductName: "PS5", PredictedCategory: "playstation", Confidence: 0.98}, types.ErrorResult("model not loaded")})
	out := buf.String()
	if !strings.Contains(out, "product 1: PS5 -> playstation (0.98)") || !strings.Contains(out, "product 2: model not loaded") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
