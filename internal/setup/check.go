// Package setup verifies the host environment and bootstraps a repository.
package setup

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"prodclass/internal/runtime"
)

const checkTimeout = 15 * time.Second

// Check is the outcome of one environment probe.
type Check struct {
	Name     string
	Required bool
	OK       bool
	Detail   string
	Hint     string
}

// Checker probes the tools the classifier depends on.
type Checker struct {
	Runner     runtime.Runner
	RuntimeBin string
	GPUTool    string
	Model      string
	Log        zerolog.Logger
}

// Run executes all checks concurrently and returns them in a fixed order:
// runtime, model, GPU tool, git.
func (c *Checker) Run(ctx context.Context) []Check {
	probes := []func(context.Context) Check{
		c.checkRuntime,
		c.checkModel,
		c.checkTool("GPU tool", c.GPUTool, "install the NVIDIA driver to enable GPU statistics", "--version"),
		c.checkTool("git", "git", "install git to use init-repo", "--version"),
	}
	out := make([]Check, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		i, probe := i, probe
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, checkTimeout)
			defer cancel()
			out[i] = probe(pctx)
			c.Log.Debug().Str("check", out[i].Name).Bool("ok", out[i].OK).Msg("check finished")
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Checker) checkRuntime(ctx context.Context) Check {
	ch := Check{Name: "model runtime", Required: true,
		Hint: "install Ollama from https://ollama.com"}
	v, err := runtime.NewOllama(c.RuntimeBin, c.Runner).Version(ctx)
	if err != nil {
		ch.Detail = err.Error()
		return ch
	}
	ch.OK, ch.Detail = true, v
	return ch
}

func (c *Checker) checkModel(ctx context.Context) Check {
	ch := Check{Name: "model " + c.Model, Required: true,
		Hint: fmt.Sprintf("create the model: %s create %s -f Modelfile.optimized", binOr(c.RuntimeBin), c.Model)}
	found, err := runtime.NewOllama(c.RuntimeBin, c.Runner).HasModel(ctx, c.Model)
	switch {
	case err != nil:
		ch.Detail = "could not list models: " + err.Error()
	case !found:
		ch.Detail = "not registered"
	default:
		ch.OK, ch.Detail = true, "registered"
	}
	return ch
}

func (c *Checker) checkTool(name, bin, hint string, args ...string) func(context.Context) Check {
	return func(ctx context.Context) Check {
		ch := Check{Name: name, Hint: hint}
		if bin == "" {
			ch.Detail = "not configured"
			return ch
		}
		out, err := c.Runner.Run(ctx, bin, args...)
		switch {
		case err != nil:
			ch.Detail = err.Error()
		case out.ExitCode != 0:
			ch.Detail = fmt.Sprintf("%s exited with code %d", bin, out.ExitCode)
		default:
			ch.OK = true
			ch.Detail = firstLine(out.Stdout)
		}
		return ch
	}
}

// AllRequiredOK reports whether every required check passed.
func AllRequiredOK(checks []Check) bool {
	for _, c := range checks {
		if c.Required && !c.OK {
			return false
		}
	}
	return true
}

// Report prints checks, a summary and hints for failed checks.
func Report(w io.Writer, checks []Check) {
	for _, c := range checks {
		mark := "ok  "
		if !c.OK {
			mark = "FAIL"
			if !c.Required {
				mark = "skip"
			}
		}
		fmt.Fprintf(w, "[%s] %-34s %s\n", mark, c.Name, c.Detail)
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if AllRequiredOK(checks) {
		fmt.Fprintln(w, "all required checks passed; run: prodclass run")
	} else {
		fmt.Fprintln(w, "problems found:")
	}
	for _, c := range checks {
		if !c.OK && c.Hint != "" {
			fmt.Fprintf(w, "  - %s\n", c.Hint)
		}
	}
}

func binOr(bin string) string {
	if bin == "" {
		return runtime.DefaultBin
	}
	return bin
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
