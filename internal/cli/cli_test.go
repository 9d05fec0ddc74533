package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"prodclass/internal/history"
	"prodclass/internal/runtime"
	"prodclass/pkg/types"
)

const (
	singleAnswer = `{"category":"iphone","confidence":0.95,"reasoning":"Apple smartphone"}`
	listOutput   = "NAME                 ID              SIZE     MODIFIED\ntest-model:latest    0123456789ab    12 GB    1 minute ago\n"
	batchAnswer  = `Here you go:
[{"index":1,"category":"iphone","confidence":0.9,"reasoning":"a"},
 {"index":2,"category":"playstation","confidence":0.8,"reasoning":"b"}]`
)

// fakeRunner scripts the runtime CLI: list reports test-model, run answers
// single or batch prompts, create succeeds. Other commands are missing.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	list  string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (runtime.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	list := f.list
	f.mu.Unlock()
	if name != "ollama" || len(args) == 0 {
		return runtime.Output{}, runtime.ErrDependencyUnavailable(name + " not found")
	}
	switch args[0] {
	case "--version":
		return runtime.Output{Stdout: "ollama version is 0.11.4\n"}, nil
	case "list":
		if list == "" {
			list = listOutput
		}
		return runtime.Output{Stdout: list}, nil
	case "create":
		return runtime.Output{Stdout: "success\n"}, nil
	case "run":
		if strings.Contains(args[len(args)-1], "JSON array") {
			return runtime.Output{Stdout: batchAnswer}, nil
		}
		return runtime.Output{Stdout: singleAnswer}, nil
	}
	return runtime.Output{ExitCode: 1, Stderr: "unknown command"}, nil
}

func (f *fakeRunner) count(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) > 1 && c[1] == sub {
			n++
		}
	}
	return n
}

// syncBuffer guards log output written from several goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func newTestApp(r *fakeRunner, env map[string]string) (*app, *bytes.Buffer) {
	base := map[string]string{"PRODCLASS_SPINNER": "0", "PRODCLASS_MODEL": "test-model"}
	for k, v := range env {
		base[k] = v
	}
	var out bytes.Buffer
	a := newApp(&out, &syncBuffer{}, func(k string) string { return base[k] })
	a.runner = r
	a.noMonitor = true
	return a, &out
}

func execute(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestClassifySingleJSON(t *testing.T) {
	r := &fakeRunner{}
	a, out := newTestApp(r, nil)
	if err := execute(a, "classify", "--json", "iPhone 15 Pro Max 256GB"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	var res []types.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(res) != 1 || res[0].PredictedCategory != "iphone" || res[0].Confidence != 0.95 || res[0].Method != "ollama" {
		t.Fatalf("unexpected results %+v", res)
	}
	if r.count("run") != 1 {
		t.Fatalf("want one runtime call, got %d", r.count("run"))
	}
}

func TestClassifyManyUsesBatch(t *testing.T) {
	r := &fakeRunner{}
	a, out := newTestApp(r, nil)
	if err := execute(a, "classify", "iPhone 15", "PlayStation 5 Slim"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "iPhone 15 -> iphone (0.90)") || !strings.Contains(s, "PlayStation 5 Slim -> playstation (0.80)") {
		t.Fatalf("unexpected output:\n%s", s)
	}
	if r.count("run") != 1 {
		t.Fatalf("batch should use one runtime call, got %d", r.count("run"))
	}
}

func TestClassifyMissingModelFails(t *testing.T) {
	r := &fakeRunner{list: "NAME ID SIZE MODIFIED\nllama3:latest abc 4 GB now\n"}
	a, out := newTestApp(r, nil)
	err := execute(a, "classify", "--json", "iPhone 15")
	if !errors.Is(err, errClassificationFailed) {
		t.Fatalf("want errClassificationFailed, got %v", err)
	}
	if !strings.Contains(out.String(), `"error": "model not loaded"`) {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if r.count("run") != 0 {
		t.Fatalf("runtime invoked for unloaded model")
	}
}

func TestCheck(t *testing.T) {
	a, out := newTestApp(&fakeRunner{}, nil)
	if err := execute(a, "check"); err != nil {
		t.Fatalf("check: %v\n%s", err, out.String())
	}
	a, _ = newTestApp(&fakeRunner{}, map[string]string{"PRODCLASS_MODEL": "absent"})
	if err := execute(a, "check"); !errors.Is(err, errChecksFailed) {
		t.Fatalf("want errChecksFailed, got %v", err)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "catalog.yaml")
	yaml := "products:\n  - name: iPhone 15 Pro Max 256GB\n    description: Apple smartphone\n  - name: PlayStation 5 Slim\n    description: Sony console\n"
	if err := os.WriteFile(catalog, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	db := filepath.Join(dir, "history", "runs.db")

	r := &fakeRunner{}
	a, out := newTestApp(r, nil)
	if err := execute(a, "run", "--catalog", catalog, "--batch-size", "2", "--single-count", "1", "--history-db", db); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	for _, want := range []string{"test-model", "batch classification of 2 products", "playstation", "faster"} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
	if r.count("run") != 2 {
		t.Fatalf("want batch + single runtime calls, got %d", r.count("run"))
	}

	a, out = newTestApp(r, nil)
	if err := execute(a, "history", "--history-db", db, "--json"); err != nil {
		t.Fatalf("history: %v", err)
	}
	var h struct {
		Categories []history.CategoryStat `json:"categories"`
		Runs       []history.RunSummary   `json:"runs"`
	}
	if err := json.Unmarshal(out.Bytes(), &h); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if len(h.Runs) != 2 {
		t.Fatalf("want 2 runs, got %+v", h.Runs)
	}
	if len(h.Categories) != 2 || h.Categories[0].Category != "iphone" || h.Categories[0].Count != 2 {
		t.Fatalf("unexpected categories %+v", h.Categories)
	}
}

func TestHistoryRequiresDatabase(t *testing.T) {
	a, _ := newTestApp(&fakeRunner{}, nil)
	if err := execute(a, "history"); err == nil {
		t.Fatalf("expected error without a history database")
	}
}

func TestOptimize(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{}
	a, out := newTestApp(r, map[string]string{"PRODCLASS_MODEL": "test-model-optimized"})
	if err := execute(a, "optimize", "--out-dir", dir, "--bound", "5s"); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	for _, name := range []string{"Modelfile.optimized", "Modelfile.fast", "Modelfile.balanced"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.HasPrefix(string(b), "FROM ") {
			t.Fatalf("%s does not start with FROM:\n%s", name, b)
		}
	}
	if r.count("create") != 2 {
		t.Fatalf("want fast and balanced created, got %d creates", r.count("create"))
	}
	if r.count("run") != 3 {
		t.Fatalf("want 3 benchmark runs, got %d", r.count("run"))
	}
	if !strings.Contains(out.String(), "recommended model: test-model-") {
		t.Fatalf("no recommendation:\n%s", out.String())
	}

	r = &fakeRunner{}
	a, _ = newTestApp(r, nil)
	if err := execute(a, "optimize", "--out-dir", t.TempDir(), "--skip-create"); err != nil {
		t.Fatalf("optimize --skip-create: %v", err)
	}
	if r.count("create") != 0 {
		t.Fatalf("create called with --skip-create")
	}
}

func TestFinetune(t *testing.T) {
	dir := t.TempDir()
	a, out := newTestApp(&fakeRunner{}, nil)
	if err := execute(a, "finetune", "--out-dir", dir); err != nil {
		t.Fatalf("finetune: %v", err)
	}
	txt, err := os.ReadFile(filepath.Join(dir, "training_data.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(txt), "Product: ") != 21 {
		t.Fatalf("want 21 examples in text file")
	}
	mf, err := os.ReadFile(filepath.Join(dir, "Modelfile.finetune"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(mf), "MESSAGE user ") != 21 || strings.Count(string(mf), "MESSAGE assistant ") != 21 {
		t.Fatalf("Modelfile.finetune lacks training messages:\n%s", mf)
	}
	if !strings.Contains(out.String(), "ollama create test-model-finetuned -f ") {
		t.Fatalf("next steps missing:\n%s", out.String())
	}
}

func TestInitRepoWithoutGoMod(t *testing.T) {
	r := &fakeRunner{}
	a, _ := newTestApp(r, nil)
	if err := execute(a, "init-repo", "--dir", t.TempDir()); err == nil {
		t.Fatalf("expected error without go.mod")
	}
	if len(r.calls) != 0 {
		t.Fatalf("commands ran: %v", r.calls)
	}
}

func TestConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodclass.yaml")
	if err := os.WriteFile(path, []byte("model_name: from-file\nsingle_timeout_sec: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, _ := newTestApp(&fakeRunner{}, map[string]string{"PRODCLASS_MODEL": ""})
	a.flags.config = path
	if err := a.configure(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if a.cfg.ModelName != "from-file" || a.cfg.SingleTimeout() != 7*time.Second || a.cfg.BatchTimeoutSec != 300 {
		t.Fatalf("file layer: %+v", a.cfg)
	}

	a, _ = newTestApp(&fakeRunner{}, map[string]string{"PRODCLASS_MODEL": "from-env"})
	a.flags.config = path
	if err := a.configure(); err != nil || a.cfg.ModelName != "from-env" {
		t.Fatalf("env layer: %v %q", err, a.cfg.ModelName)
	}

	a.flags.model = "from-flag"
	if err := a.configure(); err != nil || a.cfg.ModelName != "from-flag" {
		t.Fatalf("flag layer: %v %q", err, a.cfg.ModelName)
	}
}

func TestConfigErrors(t *testing.T) {
	a, _ := newTestApp(&fakeRunner{}, nil)
	if err := execute(a, "--log-level", "loud", "check"); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
	a, _ = newTestApp(&fakeRunner{}, map[string]string{"PRODCLASS_CATEGORIES": "iphone,unknown"})
	if err := execute(a, "check"); err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Fatalf("expected reserved category error, got %v", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	a, _ := newTestApp(&fakeRunner{}, nil)
	root := newRootCmd(a)
	root.SetArgs([]string{"serve", "--addr", "127.0.0.1:0"})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("serve did not stop")
	}
}

func TestParseLevel(t *testing.T) {
	for in, ok := range map[string]bool{"": true, "DEBUG": true, "warning": true, "err": true, "off": true, "loud": false} {
		if _, err := parseLevel(in); (err == nil) != ok {
			t.Fatalf("parseLevel(%q) err=%v", in, err)
		}
	}
	if _, err := newLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
