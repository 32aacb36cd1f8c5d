package observability

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/novaquery/novaquery/internal/config"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

var (
	dsnURLCredentials = regexp.MustCompile(`(://)([^:/@]+):([^@]+)(@)`)
	dsnMySQLPassword  = regexp.MustCompile(`^([^:/@]+):([^@]+)(@)`)
	dsnPasswordParam  = regexp.MustCompile(`(?i)(password=)([^\s&;]+)`)
)

func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	var handler slog.Handler
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	} else {
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: cfg.Observability.LogLevel})
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}

// MaskDSN hides credentials in URL-style, MySQL-style and key=value DSNs.
func MaskDSN(dsn string) string {
	out := dsn
	if strings.Contains(out, "://") {
		out = dsnURLCredentials.ReplaceAllString(out, "$1***:***$4")
	} else {
		out = dsnMySQLPassword.ReplaceAllString(out, "$1:***$3")
	}
	return dsnPasswordParam.ReplaceAllString(out, "$1***")
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
