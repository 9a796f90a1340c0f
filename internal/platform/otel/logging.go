package otel

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const envDebug = "GIVING_SPACE_DEBUG"

// NewLogger builds the process logger for serviceName.
//
// Records always go to w as text. When OTLP export is enabled they are also
// fanned out to the OpenTelemetry log bridge so they correlate with spans.
func NewLogger(serviceName string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug := strings.TrimSpace(os.Getenv(envDebug)); debug != "" && !strings.EqualFold(debug, "false") {
		opts.Level = slog.LevelDebug
	}

	text := slog.NewTextHandler(w, opts)
	var handler slog.Handler = text
	if Enabled() {
		handler = slogmulti.Fanout(text, otelslog.NewHandler(serviceName))
	}
	return slog.New(handler).With(slog.String("service", serviceName))
}
