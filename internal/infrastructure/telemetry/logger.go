package telemetry

import (
	"context"
	"io"
	"log/slog"

	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

// Request-scoped values copied onto every log record. The key doubles as
// the attribute name.
const (
	httpRouteKey contextKey = "http.route"
	sessionKey   contextKey = "session.id"
)

var scopedKeys = []contextKey{httpRouteKey, sessionKey}

func WithHTTPRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, httpRouteKey, route)
}

func HTTPRouteFromContext(ctx context.Context) string {
	return stringValue(ctx, httpRouteKey)
}

// WithSessionID tags the context with the admin session serving the request.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

func SessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, sessionKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// contextHandler decorates records with the active span and the scoped
// request values before passing them on.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	for _, key := range scopedKeys {
		if v := stringValue(ctx, key); v != "" {
			r.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}

// initLogger builds the JSON logger shared by every component of a process.
func initLogger(cfg *config.OTLPConfig, out io.Writer) *slog.Logger {
	json := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(contextHandler{next: json}).With(
		slog.String("service.name", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)
}
