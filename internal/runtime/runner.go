package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// waitDelay bounds how long Run waits for the output pipes after the
// process is killed.
const waitDelay = 2 * time.Second

// Output is the captured result of one command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// Runner executes external commands. Non-zero exits are reported through
// Output.ExitCode with a nil error; errors are reserved for commands that
// could not run or did not finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs commands with os/exec, capturing stdout and stderr.
type ExecRunner struct {
	// Env holds additional environment variables appended to os.Environ().
	Env map[string]string
	// Dir is the working directory; empty means the current one.
	Dir string
	Log zerolog.Logger
}

// NewExecRunner returns an ExecRunner that logs through l.
func NewExecRunner(l zerolog.Logger) *ExecRunner {
	return &ExecRunner{Log: l}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := Output{
		Stdout:  strings.ToValidUTF8(stdout.String(), "�"),
		Stderr:  strings.ToValidUTF8(stderr.String(), "�"),
		Elapsed: time.Since(start),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	r.Log.Debug().Str("cmd", name).Int("exit", out.ExitCode).Dur("dur", out.Elapsed).Msg("command finished")

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, timeoutError{cmd: name}
		}
		return out, ctx.Err()
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		// The command exited cleanly; a leftover child held the pipes.
		r.Log.Warn().Str("cmd", name).Msg("output pipes held open after exit")
		return out, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, nil
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return out, ErrDependencyUnavailable(fmt.Sprintf("%s not found: %v", name, err))
		}
		return out, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}
