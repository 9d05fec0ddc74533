// Package progress draws a single-line terminal spinner while a blocking
// call is in flight.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DefaultFrames cycle once per interval.
var DefaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	defaultInterval = 300 * time.Millisecond
	minClearWidth   = 80
)

var frameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

// Spinner redraws "\r<frame> <label>" until Stop is called. Only the
// spinner goroutine writes to the writer until Stop returns.
type Spinner struct {
	w        io.Writer
	label    string
	frames   []string
	interval time.Duration

	stopped atomic.Bool
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	width   int
}

// Start begins drawing label to w. A nil w yields a spinner whose Stop is a
// no-op, so callers need no special case for non-interactive output.
func Start(w io.Writer, label string) *Spinner {
	return StartWith(w, label, DefaultFrames, defaultInterval)
}

// StartWith is Start with explicit frames and redraw interval.
func StartWith(w io.Writer, label string, frames []string, interval time.Duration) *Spinner {
	s := &Spinner{w: w, label: label, frames: frames, interval: interval,
		quit: make(chan struct{}), done: make(chan struct{})}
	if w == nil || len(frames) == 0 {
		s.stopped.Store(true)
		close(s.done)
		return s
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	defer close(s.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for i := 0; ; i++ {
		if s.stopped.Load() {
			return
		}
		line := frameStyle.Render(s.frames[i%len(s.frames)]) + " " + s.label
		if n := lipgloss.Width(line); n > s.width {
			s.width = n
		}
		fmt.Fprint(s.w, "\r"+line)
		select {
		case <-s.quit:
			return
		case <-t.C:
		}
	}
}

// Stop halts the spinner, waits for its goroutine and erases the line.
// Stop is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		if s.stopped.Swap(true) && s.w == nil {
			return
		}
		close(s.quit)
		<-s.done
		if s.w == nil {
			return
		}
		width := s.width
		if width < minClearWidth {
			width = minClearWidth
		}
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", width)+"\r")
	})
}
