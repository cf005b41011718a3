// Package cli implements the memeforge command line.
//
// Commands:
//   - generate: pick a template, write a caption and render a meme
//   - render: caption an image URL or local file
//   - history: list, show, pick or clear recent memes
//   - edit: live caption editor that re-renders as you type
//   - share: share text and links for a meme
//   - serve: run the HTTP API
//   - fonts, config, cache: inspect and manage local state
//
// Status lines go to stdout; logs go to stderr through charmbracelet/log.
// --verbose lowers the level to debug and routes pipeline, cache and HTTP
// events to the same logger.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// withLogger attaches l to ctx for the helpers a command calls.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return log.WithContext(ctx, l)
}

// loggerFromContext returns the logger attached by withLogger, or the
// package default.
func loggerFromContext(ctx context.Context) *log.Logger {
	return log.FromContext(ctx)
}

// progress logs an operation's duration when it finishes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to milliseconds.
func (p *progress) done(msg string) {
	p.logger.Info(msg, "took", time.Since(p.start).Round(time.Millisecond))
}
