// Package logger provides the service's slog handler and HTTP request logging.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Level   slog.Level
	Service string
	Writer  io.Writer
}

// handler decorates records with the request and trace ids found in ctx.
type handler struct {
	slog.Handler
}

// NewHandler returns a JSON handler. Nil opts means info level to stdout.
func NewHandler(opts *Options) slog.Handler {
	if opts == nil {
		opts = &Options{Level: slog.LevelInfo}
	}
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	var h slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	if opts.Service != "" {
		hostname, _ := os.Hostname()
		h = h.WithAttrs([]slog.Attr{
			slog.String("service", opts.Service),
			slog.String("hostname", hostname),
		})
	}

	return &handler{Handler: h}
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetReqID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
