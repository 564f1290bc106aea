package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pzmod/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Fetched 42 workshop items (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Library Hooks
// =============================================================================

// bindHooks routes the fetch, cache and HTTP hooks to l at debug level.
func bindHooks(l *log.Logger) {
	h := logHooks{l}
	observability.SetFetchHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// logHooks implements every observability hook interface by logging.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnChunkStart(_ context.Context, requested int) {
	h.logger.Debug("Fetching workshop chunk", "ids", requested)
}

func (h logHooks) OnChunkComplete(_ context.Context, requested, returned int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("Workshop chunk failed", "ids", requested, "err", err)
		return
	}
	h.logger.Debug("Workshop chunk done", "ids", requested, "found", returned, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnCacheHit(_ context.Context, id string) {
	h.logger.Debug("Cache hit", "id", id)
}

func (h logHooks) OnCacheMiss(_ context.Context, id string) {
	h.logger.Debug("Cache miss", "id", id)
}

func (h logHooks) OnCacheWait(_ context.Context, id string) {
	h.logger.Debug("Waiting for in-flight fetch", "id", id)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("HTTP request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("HTTP response", "method", method, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("HTTP error", "method", method, "host", host, "path", path, "err", err)
}
