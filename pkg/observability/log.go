package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook set by writing debug-level log lines.
// The CLI installs it when --verbose is set.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

// Install routes every event to h.
func (h *LogHooks) Install() { Install(h) }

func (h *LogHooks) OnFetchStart(_ context.Context, source string) {
	h.logger.Debug("fetching image", "source", source)
}

func (h *LogHooks) OnFetchComplete(_ context.Context, source string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("image fetch failed", "source", source, "error", err)
		return
	}
	h.logger.Debug("image fetched", "source", source, "bytes", size, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCaptionStart(_ context.Context, provider, topic string) {
	h.logger.Debug("generating caption", "provider", provider, "topic", topic)
}

func (h *LogHooks) OnCaptionComplete(_ context.Context, provider string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("caption failed", "provider", provider, "error", err)
		return
	}
	h.logger.Debug("caption ready", "provider", provider, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRenderStart(_ context.Context, width, height int) {
	h.logger.Debug("rendering", "width", width, "height", height)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, lines int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "error", err)
		return
	}
	h.logger.Debug("rendered", "lines", lines, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnExportComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("export failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("exported", "format", format, "bytes", size, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}

var _ Hooks = (*LogHooks)(nil)
