package setup

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"prodclass/internal/common/fsutil"
	"prodclass/internal/runtime"
)

// CommitMessage is used for the first commit created by InitRepo.
const CommitMessage = "Initial commit: product classifier"

// marker must exist in the directory for InitRepo to proceed.
const marker = "go.mod"

type gitStep struct {
	desc string
	args []string
}

// InitRepo initialises a git repository in dir, stages everything and
// commits. It stops at the first failing step.
func InitRepo(ctx context.Context, r runtime.Runner, dir string, w io.Writer) error {
	if dir == "" {
		dir = "."
	}
	if !fsutil.PathExists(filepath.Join(dir, marker)) {
		return fmt.Errorf("%s not found in %s: run from the project root", marker, dir)
	}
	steps := []gitStep{
		{"initialise repository", []string{"init"}},
		{"stage files", []string{"add", "."}},
		{"first commit", []string{"commit", "-m", CommitMessage}},
	}
	for _, s := range steps {
		fmt.Fprintf(w, "-> %s\n", s.desc)
		out, err := r.Run(ctx, "git", append([]string{"-C", dir}, s.args...)...)
		if err != nil {
			return fmt.Errorf("%s: %w", s.desc, err)
		}
		if out.ExitCode != 0 {
			return fmt.Errorf("%s: git exited with code %d: %s", s.desc, out.ExitCode, strings.TrimSpace(out.Stderr))
		}
		if msg := strings.TrimSpace(out.Stdout); msg != "" {
			fmt.Fprintf(w, "   %s\n", firstLine(msg))
		}
	}
	fmt.Fprint(w, `
repository initialised. Next steps:
  1. create a remote repository
  2. git remote add origin <url>
  3. git push -u origin main
`)
	return nil
}
