package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// spinnerStyle is the frame set drawn by Spinner. It is the same one the
// bubbletea views use, drawn without a tea.Program so plain commands can
// show progress on stderr.
var spinnerStyle = spinner.Dot

// Spinner draws an animated status line until it is stopped or its context
// is cancelled.
type Spinner struct {
	out    io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
	once   sync.Once

	mu      sync.Mutex
	message string
	width   int
}

// newSpinner returns a spinner drawing to stderr.
func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{out: w, ctx: ctx, cancel: cancel, message: message, exited: make(chan struct{})}
}

// Start begins drawing in the background.
func (s *Spinner) Start() {
	go func() {
		defer close(s.exited)
		defer s.clearLine()

		frames := spinnerStyle.Frames
		for i := 0; ; i++ {
			s.draw(frames[i%len(frames)])
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(spinnerStyle.FPS):
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	s.width = max(s.width, lipgloss.Width(line))
	fmt.Fprint(s.out, "\r"+line)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width)+"\r")
	}
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop clears the line and waits for the drawing goroutine to exit. It may
// be called more than once; Start must have been called first.
func (s *Spinner) Stop() {
	s.once.Do(s.cancel)
	<-s.exited
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}
