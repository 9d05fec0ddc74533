package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const modelList = "NAME                 ID              SIZE     MODIFIED\ntest-model:latest    0123456789ab    12 GB    1 minute ago\n"

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func goBuild(t *testing.T, out, pkg string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), out)
	cmd := exec.Command("go", "build", "-o", bin, pkg)
	cmd.Dir = projectRootFromThisFile(t)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, b)
	}
	return bin
}

// binaries builds the CLI and the fake model runtime.
func binaries(t *testing.T) (cli, fake string) {
	t.Helper()
	return goBuild(t, "prodclass", "./cmd/prodclass"), goBuild(t, "ollama", "./internal/runtime/testdata/fake_ollama.go")
}

// env returns the process environment pointing prodclass at the fake runtime.
func env(fake string, extra ...string) []string {
	e := append(os.Environ(),
		"PRODCLASS_RUNTIME_BIN="+fake,
		"PRODCLASS_MODEL=test-model",
		"PRODCLASS_SPINNER=0",
		"FAKE_OLLAMA_LIST="+modelList,
	)
	return append(e, extra...)
}

func runCLI(t *testing.T, bin string, environ []string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = environ
	var o, e bytes.Buffer
	cmd.Stdout, cmd.Stderr = &o, &e
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	default:
		t.Fatalf("run %v: %v", args, err)
	}
	return o.String(), e.String(), code
}

func TestBlackbox_Classify(t *testing.T) {
	cli, fake := binaries(t)
	out, errOut, code := runCLI(t, cli, env(fake, `FAKE_OLLAMA_RESPONSE={"category":"iphone","confidence":0.98,"reasoning":"Apple smartphone"}`),
		"classify", "--json", "iPhone 15 Pro Max 256GB")
	if code != 0 {
		t.Fatalf("exit %d\nstdout: %s\nstderr: %s", code, out, errOut)
	}
	var res []struct {
		Category   string  `json:"predicted_category"`
		Confidence float64 `json:"confidence"`
		Method     string  `json:"method"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if len(res) != 1 || res[0].Category != "iphone" || res[0].Confidence != 0.98 || res[0].Method != "ollama" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestBlackbox_Classify_RuntimeFailure(t *testing.T) {
	cli, fake := binaries(t)
	out, errOut, code := runCLI(t, cli, env(fake, "FAKE_OLLAMA_EXIT=1", "FAKE_OLLAMA_STDERR=Error: model not found"),
		"classify", "--json", "iPhone 15")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d\nstderr: %s", code, errOut)
	}
	if !strings.Contains(out, "model not found") || strings.Contains(out, "predicted_category") {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestBlackbox_Classify_Timeout(t *testing.T) {
	cli, fake := binaries(t)
	out, _, code := runCLI(t, cli, env(fake, "FAKE_OLLAMA_SLEEP=5s", "PRODCLASS_SINGLE_TIMEOUT_SEC=1"),
		"classify", "--json", "iPhone 15")
	if code != 1 || !strings.Contains(out, `"error": "timeout`) {
		t.Fatalf("exit %d, output %s", code, out)
	}
}

func TestBlackbox_Check(t *testing.T) {
	cli, fake := binaries(t)
	out, _, code := runCLI(t, cli, env(fake), "check")
	if code != 0 || !strings.Contains(out, "all required checks passed") {
		t.Fatalf("exit %d, output %s", code, out)
	}
	out, _, code = runCLI(t, cli, env(fake, "PRODCLASS_MODEL=absent"), "check")
	if code == 0 || !strings.Contains(out, "not registered") {
		t.Fatalf("exit %d, output %s", code, out)
	}
}

func startServer(t *testing.T, bin string, environ []string, port int) string {
	t.Helper()
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	cmd := exec.Command(bin, "serve", "--addr", fmt.Sprintf("127.0.0.1:%d", port))
	cmd.Env = environ
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill(); _ = cmd.Wait() })
	// Wait for readyz: listening and the model check done.
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(base + "/readyz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return base
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become ready in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Serve(t *testing.T) {
	cli, fake := binaries(t)
	base := startServer(t, cli, env(fake, `FAKE_OLLAMA_RESPONSE={"category":"playstation","confidence":0.9}`), findFreePort(t))

	resp, body := get(t, base+"/models")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("test-model:latest")) {
		t.Fatalf("/models %d %s", resp.StatusCode, body)
	}

	resp, body = get(t, base+"/model")
	var info struct {
		ModelName string `json:"model_name"`
		IsLoaded  bool   `json:"is_loaded"`
	}
	if err := json.Unmarshal(body, &info); err != nil || !info.IsLoaded || info.ModelName != "test-model" {
		t.Fatalf("/model %d %s", resp.StatusCode, body)
	}

	resp, body = postJSON(t, base+"/classify", `{"name":"PlayStation 5 Slim","description":"Sony console"}`)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte(`"predicted_category":"playstation"`)) {
		t.Fatalf("/classify %d %s", resp.StatusCode, body)
	}

	resp, body = postJSON(t, base+"/classify", `{"name":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty name: %d %s", resp.StatusCode, body)
	}

	resp, body = get(t, base+"/metrics")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("prodclass_classifier_requests_total")) {
		t.Fatalf("/metrics %d", resp.StatusCode)
	}
}
