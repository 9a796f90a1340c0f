// Package web parses web command flags and launches the preview server.
package web

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	entrypoint "github.com/louisbranch/giving.space/internal/platform/cmd"
	"github.com/louisbranch/giving.space/internal/platform/otel"
	"github.com/louisbranch/giving.space/internal/services/web"
	"github.com/louisbranch/giving.space/internal/services/web/auth"
	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/fetch"
	"github.com/louisbranch/giving.space/internal/services/web/receipts"
	"github.com/louisbranch/giving.space/internal/services/web/resource"
	"github.com/louisbranch/giving.space/internal/services/web/storage/sqlite"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr        string        `env:"GIVING_SPACE_WEB_HTTP_ADDR" envDefault:"localhost:8086"`
	APIBaseURL      string        `env:"GIVING_SPACE_WEB_API_BASE_URL" envDefault:"http://localhost:8080"`
	APIToken        string        `env:"GIVING_SPACE_WEB_API_TOKEN"`
	ReceiptsSource  string        `env:"GIVING_SPACE_WEB_RECEIPTS_SOURCE" envDefault:"remote"`
	ReceiptsDBPath  string        `env:"GIVING_SPACE_WEB_RECEIPTS_DB_PATH" envDefault:"data/receipts.db"`
	FetchTimeout    time.Duration `env:"GIVING_SPACE_WEB_FETCH_TIMEOUT" envDefault:"10s"`
	SummaryFreshTTL time.Duration `env:"GIVING_SPACE_WEB_SUMMARY_FRESH_TTL" envDefault:"30s"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Remote donation API base URL")
	fs.StringVar(&cfg.ReceiptsSource, "receipts-source", cfg.ReceiptsSource, "Receipts source: remote, static or sqlite")
	fs.StringVar(&cfg.ReceiptsDBPath, "receipts-db-path", cfg.ReceiptsDBPath, "The receipts SQLite database path")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout of one remote API read")
	fs.DurationVar(&cfg.SummaryFreshTTL, "summary-fresh-ttl", cfg.SummaryFreshTTL, "How long a fetched summary is served without refetching")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := receipts.ParseKind(cfg.ReceiptsSource); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the web preview server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		server, closeAll, err := newServer(cfg, otel.NewLogger(entrypoint.ServiceWeb, os.Stderr))
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer closeAll()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

// newServer wires the executor, receipts source, cache and hooks behind the
// preview server. The returned func releases everything it opened.
func newServer(cfg Config, logger *slog.Logger) (*web.Server, func(), error) {
	exec, err := fetch.NewExecutor(cfg.APIBaseURL,
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init fetch executor: %w", err)
	}
	closers := []io.Closer{exec}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close web dependency", "error", err)
			}
		}
	}

	source, err := openReceiptsSource(cfg, exec, &closers)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	registry := cache.NewRegistry(
		cache.WithLogger(logger),
		cache.WithFetchTimeout(cfg.FetchTimeout),
	)
	hooks := resource.New(registry, exec, source,
		resource.WithSession(auth.NewSession(cfg.APIToken, nil)),
		resource.WithSummaryFreshFor(cfg.SummaryFreshTTL),
	)
	server, err := web.NewServer(web.Config{HTTPAddr: cfg.HTTPAddr}, web.Dependencies{
		Hooks:  hooks,
		Toasts: web.NewToastQueues(),
		Logger: logger,
	})
	if err != nil {
		registry.Close()
		closeAll()
		return nil, nil, err
	}
	return server, func() {
		server.Close()
		closeAll()
	}, nil
}

func openReceiptsSource(cfg Config, exec *fetch.Executor, closers *[]io.Closer) (receipts.Source, error) {
	kind, err := receipts.ParseKind(cfg.ReceiptsSource)
	if err != nil {
		return nil, err
	}
	switch kind {
	case receipts.KindStatic:
		return receipts.NewStatic(nil), nil
	case receipts.KindSQLite:
		store, err := sqlite.Open(cfg.ReceiptsDBPath)
		if err != nil {
			return nil, fmt.Errorf("open receipts store: %w", err)
		}
		*closers = append(*closers, store)
		return receipts.NewLedger(store), nil
	default:
		return receipts.NewRemote(exec), nil
	}
}
