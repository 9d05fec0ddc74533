package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"prodclass/internal/runtime"
	"prodclass/pkg/types"
)

type stubRunner struct {
	out  runtime.Output
	err  error
	args []string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) (runtime.Output, error) {
	s.args = append([]string{name}, args...)
	return s.out, s.err
}

func TestParseGPUCSV(t *testing.T) {
	in := "NVIDIA GeForce RTX 4070 Ti, 9120, 12282, 87\nNVIDIA A100, 0, 40960, 0\n\n"
	want := []types.GPUInfo{
		{Name: "NVIDIA GeForce RTX 4070 Ti", MemoryUsedMB: 9120, MemoryTotalMB: 12282, UtilizationPercent: 87},
		{Name: "NVIDIA A100", MemoryUsedMB: 0, MemoryTotalMB: 40960, UtilizationPercent: 0},
	}
	if diff := cmp.Diff(want, ParseGPUCSV(in)); diff != "" {
		t.Fatalf("ParseGPUCSV (-want +got):\n%s", diff)
	}
}

func TestParseGPUCSVMalformed(t *testing.T) {
	if got := ParseGPUCSV("short, line\n"); len(got) != 0 {
		t.Fatalf("expected short lines skipped, got %+v", got)
	}
	if got := ParseGPUCSV("RTX, 10, 20, 30\nRTX, [N/A], 20, 30\n"); got != nil {
		t.Fatalf("expected nil on non-numeric field, got %+v", got)
	}
}

func TestNvidiaSMIProbe(t *testing.T) {
	r := &stubRunner{out: runtime.Output{Stdout: "RTX, 1, 2, 3\n"}}
	got := NewNvidiaSMI("nvidia-smi", r).Probe(context.Background())
	if len(got) != 1 || got[0].UtilizationPercent != 3 {
		t.Fatalf("unexpected probe result: %+v", got)
	}
	want := []string{"nvidia-smi", "--query-gpu=name,memory.used,memory.total,utilization.gpu", "--format=csv,noheader,nounits"}
	if diff := cmp.Diff(want, r.args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
}

func TestNvidiaSMIProbeFailuresAreEmpty(t *testing.T) {
	cases := []*stubRunner{
		{err: runtime.ErrDependencyUnavailable("nvidia-smi not found")},
		{err: errors.New("boom")},
		{out: runtime.Output{ExitCode: 9, Stderr: "NVIDIA-SMI has failed"}},
	}
	for i, r := range cases {
		if got := NewNvidiaSMI("nvidia-smi", r).Probe(context.Background()); len(got) != 0 {
			t.Fatalf("case %d: expected empty, got %+v", i, got)
		}
	}
	var disabled *NvidiaSMI
	if got := disabled.Probe(context.Background()); got != nil {
		t.Fatalf("nil prober should report nothing")
	}
	if got := NewNvidiaSMI("", &stubRunner{}).Probe(context.Background()); got != nil {
		t.Fatalf("empty bin should disable probing")
	}
}
