// Package cmd holds the startup steps shared by process entry points.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"strings"

	"github.com/louisbranch/giving.space/internal/platform/config"
	"github.com/louisbranch/giving.space/internal/platform/otel"
	"github.com/louisbranch/giving.space/internal/platform/timeouts"
)

// ServiceWeb names the web process in telemetry and logs.
const ServiceWeb = "web"

// ParseConfig loads environment defaults into cfg. Flags registered afterwards
// use those values as their defaults.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry starts tracing for service, runs run and flushes pending
// spans once it returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "service", service, "error", err)
		}
	}()
	return run(ctx)
}
