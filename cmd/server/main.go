package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"blog-posts/internal/apperr"
	"blog-posts/internal/config"
	"blog-posts/internal/db"
	httpx "blog-posts/internal/http"
	"blog-posts/internal/post"
	"blog-posts/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

var serverFlags = map[string]cobraflags.Flag{
	"database-url": &cobraflags.StringFlag{
		Name:  "database-url",
		Usage: "Database connection string (env DATABASE_URL)",
	},
	"db-driver": &cobraflags.StringFlag{
		Name:  "db-driver",
		Value: "pgx",
		Usage: "Database driver: pgx, postgres or mysql",
	},
	"db-max-conns": &cobraflags.StringFlag{
		Name:  "db-max-conns",
		Value: "10",
		Usage: "Maximum number of pooled database connections",
	},
	"listen-addr": &cobraflags.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "Address the HTTP server binds to",
	},
	"log-level": &cobraflags.StringFlag{
		Name:  "log-level",
		Value: "info",
		Usage: "Log level: debug, info, warn or error",
	},
	"log-format": &cobraflags.StringFlag{
		Name:  "log-format",
		Value: "json",
		Usage: "Log format: json or text",
	},
	"init-schema": &cobraflags.StringFlag{
		Name:  "init-schema",
		Value: "false",
		Usage: "Create the posts table at startup if it is missing",
	},
	"otel-endpoint": &cobraflags.StringFlag{
		Name:  "otel-endpoint",
		Usage: "OTLP/HTTP endpoint for traces; tracing is off when empty",
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("An error occurred", "err", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           "post-service",
		Short:         "Serve the post resource over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}
	cobraflags.RegisterMap(cmd, serverFlags)
	bindFlags(cmd, v)
	return cmd
}

// bindFlags lets flags set on the command line override the environment.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	for name := range serverFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f != nil {
			_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f)
		}
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	config.LoadDotEnv()

	cfg, err := config.Load(v)
	if err != nil {
		return apperr.Init(err)
	}
	logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return apperr.Init(err)
	}
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTelEndpoint, cfg.ServiceName)
	if err != nil {
		return apperr.Init(err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.Open(openCtx, cfg.DBDriver, cfg.DatabaseURL, cfg.DBMaxConns)
	cancel()
	if err != nil {
		return apperr.Init(err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	posts := post.NewRepository(db.NewExecutor(pool, logger, metrics))
	if cfg.InitSchema {
		if err := posts.EnsureSchema(ctx); err != nil {
			return apperr.Init(err)
		}
		logger.Info("posts table ready", "driver", cfg.DBDriver)
	}

	srv := httpx.NewServer(posts, logger, metrics, reg)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return apperr.Init(err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("starting to listen", "addr", ln.Addr().String(), "driver", cfg.DBDriver)
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperr.Init(err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
