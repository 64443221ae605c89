// Command healthreport prints one structural health report and exits.
// It exits 2 when any diagnostic has findings, for use in CI.
package main

import (
	"context"
	"fmt"
	"os"

	"pgstruct-mcp/internal/check"
	"pgstruct-mcp/internal/config"
	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/model"
	"pgstruct-mcp/internal/report"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// report lines go to stdout, logs to stderr
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	cluster, err := db.BuildCluster(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to cluster", logging.FieldDSN("dsn", cfg.DSN), zap.Error(err))
		return 1
	}
	defer cluster.Close()

	engine, err := check.New(cluster, check.WithLogger(logger), check.WithParallel(cfg.ParallelAcrossCluster))
	if err != nil {
		logger.Error("failed to create check engine", zap.Error(err))
		return 1
	}

	scs := make([]model.SchemaContext, 0, len(cfg.Schemas))
	for _, s := range cfg.Schemas {
		sc, err := model.NewSchemaContext(s, cfg.BloatPercentageThreshold, cfg.RemainingPercentageThreshold)
		if err != nil {
			logger.Error("invalid schema", zap.String("schema", s), zap.Error(err))
			return 1
		}
		scs = append(scs, sc)
	}

	rep, err := report.New(engine, report.WithExclusions(cfg.Exclusions), report.WithLogger(logger)).Generate(ctx, scs)
	if err != nil {
		logger.Error("health report failed", zap.Error(err))
		return 1
	}
	out, err := rep.Render(cfg.ReportFormat)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		return 1
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return 1
	}
	if rep.Total() > 0 {
		return 2
	}
	return 0
}
