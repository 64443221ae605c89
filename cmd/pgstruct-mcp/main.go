package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pgstruct-mcp/internal/check"
	"pgstruct-mcp/internal/config"
	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/management"
	"pgstruct-mcp/internal/mcpserver"
	"pgstruct-mcp/internal/metrics"
	"pgstruct-mcp/internal/version"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const serverName = "pgstruct-mcp"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// fallback logger
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)
	cluster, err := db.BuildCluster(ctx, cfg, logging.WithComponent(logger, "cluster"),
		db.WithProbeObserver(func(_ db.Host, primary bool, err error) { m.RecordProbe(primary, err) }),
		db.WithSwitchObserver(func(_, _ db.Host) { m.RecordSwitch() }),
	)
	if err != nil {
		logger.Fatal("failed to connect to cluster", logging.FieldDSN("dsn", cfg.DSN), zap.Error(err))
	}
	defer cluster.Close()

	opts := []check.Option{
		check.WithLogger(logging.WithComponent(logger, "check")),
		check.WithMetrics(m),
		check.WithParallel(cfg.ParallelAcrossCluster),
	}
	if cfg.LogStatsReset {
		mgr := management.New(cluster, logging.WithComponent(logger, "management"))
		opts = append(opts, check.WithBeforeHost(mgr.LogStatsAge()))
	}
	engine, err := check.New(cluster, opts...)
	if err != nil {
		logger.Fatal("failed to create check engine", zap.Error(err))
	}

	if cfg.MetricsAddr != "" {
		ms := metrics.NewServer(cfg.MetricsAddr, prometheus.DefaultGatherer, logger)
		ms.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Stop(shutdownCtx)
		}()
	}

	srv := mcpserver.New(cfg, logger, cluster, engine)
	switch cfg.Transport {
	case config.TransportStdio:
		runStdio(ctx, srv, logger)
	case config.TransportStreamable:
		runStreamable(ctx, srv, cfg, logger)
	default:
		logger.Fatal("unknown transport", zap.String("transport", cfg.Transport))
	}
}

func runStdio(ctx context.Context, srv *mcpserver.Server, logger *zap.Logger) {
	logger.Info("starting server (stdio)", zap.String("name", serverName), zap.Stringer("version", version.Info()))
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func runStreamable(ctx context.Context, srv *mcpserver.Server, cfg config.Config, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTPAddr, cfg.HTTPPort)
	endpoint := cfg.HTTPPath

	logger.Info("starting server (Streamable HTTP)",
		zap.String("name", serverName),
		zap.Stringer("version", version.Info()),
		zap.String("addr", addr),
		zap.String("endpoint", endpoint),
	)

	mux := http.NewServeMux()
	mux.Handle(endpoint, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv.MCP() }, nil))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down HTTP server")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("HTTP server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
