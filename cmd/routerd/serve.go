package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/nestroute/internal/config"
	"github.com/vango-dev/nestroute/internal/telemetry"
	"github.com/vango-dev/nestroute/pkg/manifest"
	"github.com/vango-dev/nestroute/pkg/middleware"
	"github.com/vango-dev/nestroute/pkg/router"
	"github.com/vango-dev/nestroute/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port  int
		host  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the routing service",
		Long: `Run the HTTP and WebSocket routing service.

Endpoints:
  /ws        one routing session per WebSocket connection
  /routes    the activated route table
  /match     resolve ?segment= without hooks
  /healthz   liveness
  /metrics   Prometheus metrics (metrics.enabled)

Examples:
  routerd serve
  routerd serve --port=8080 --watch
  routerd serve --manifest s3://routes/prod.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if watch {
				cfg.Manifest.Watch = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from routerd.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from routerd.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the manifest file when it changes")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing, telemetry.Options{
		ServiceVersion: version,
		Writer:         os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	mw := []router.Middleware{middleware.Logging(logger)}
	if cfg.Tracing.Enabled {
		mw = append(mw, middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)))
	}

	srvCfg := &server.Config{
		Address:         cfg.Address(),
		WSPath:          cfg.Server.WSPath,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Logger:          logger.With("component", "server"),
	}

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		mw = append(mw, metrics.Middleware())
		srvCfg.Metrics = metrics
		srvCfg.Gatherer = reg
		srvCfg.MetricsPath = cfg.Metrics.Path
	}
	srvCfg.Middleware = mw

	srv := server.New(srvCfg)

	m, err := loadManifest(ctx, cfg)
	if err != nil {
		return err
	}
	if err := srv.SetManifest(m); err != nil {
		return err
	}

	printStartup(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if cfg.Manifest.Watch {
		g.Go(func() error {
			return manifest.Watch(gctx, cfg.ManifestPath(), func(m *manifest.Manifest, err error) {
				if err == nil {
					err = srv.SetManifest(m)
				}
				if metrics != nil {
					metrics.ManifestReloaded(err)
				}
				if err != nil {
					logger.Warn("manifest rejected, keeping the previous one", "error", err)
				}
			}, manifest.WatchOptions{Logger: logger.With("component", "manifest")})
		})
	}
	return g.Wait()
}

func printStartup(cfg *config.Config) {
	addr := cfg.Address()
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	fmt.Fprintf(os.Stderr, "routerd %s\n", version)
	fmt.Fprintf(os.Stderr, "  Manifest:  %s\n", cfg.ManifestPath())
	fmt.Fprintf(os.Stderr, "  WebSocket: ws://%s%s\n", addr, cfg.Server.WSPath)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(os.Stderr, "  Metrics:   http://%s%s\n", addr, cfg.Metrics.Path)
	}
}
