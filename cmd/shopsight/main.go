package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	corecfg "github.com/shopsight-lab/shopsight/internal/core/config"
	"github.com/shopsight-lab/shopsight/internal/core/funnel"
	"github.com/shopsight-lab/shopsight/internal/core/rollup"
	"github.com/shopsight-lab/shopsight/internal/core/storage/postgres"
	"github.com/shopsight-lab/shopsight/internal/identity"
	"github.com/shopsight-lab/shopsight/internal/ingestion"
	"github.com/shopsight-lab/shopsight/internal/migrations"
	"github.com/shopsight-lab/shopsight/internal/reporting"
	"github.com/shopsight-lab/shopsight/internal/retention"
	"github.com/shopsight-lab/shopsight/internal/server"
)

func main() {
	configPath := flag.String("config", "shopsight.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration (validates and loads funnel definitions)
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "funnels", len(cfg.FunnelLoading.Funnels))

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	rollupAdapter := postgres.NewRollupAdapter(dbAdapter.DB())

	// The single contribution loop shared by ingestion and pruning. Both
	// paths evaluating the same pure definitions is what keeps bucket sums
	// equal to the sums over surviving events.
	contribFor := func(evt *v1.Event) []rollup.Contribution {
		return rollup.Apply(rollup.Definitions, evt)
	}

	// 3. Initialize Services
	ingestionSvc := ingestion.NewService(dbAdapter, contribFor, cfg.Server.MaxBodySizeMB)
	identitySvc := identity.NewService(dbAdapter)

	// Config.Load already validated the funnel files; this re-read builds
	// the lookup repository the reporting service queries by name.
	funnelRepo, err := funnel.NewFileSystemFunnelRepository(cfg.Funnels.ConfigDir)
	if err != nil {
		slog.Error("Failed to load funnel definitions", "error", err)
		os.Exit(1)
	}
	reportingSvc := reporting.NewService(
		rollupAdapter,
		dbAdapter,
		funnelRepo,
		cfg.Reporting.CacheSize,
		cfg.Reporting.CacheTTLDuration(),
	)

	// 4. Initialize Retention
	pruner := retention.NewPruner(dbAdapter, contribFor, cfg.Retention.Days, cfg.Retention.BatchSize)
	scheduler := retention.NewScheduler(pruner, dbAdapter, cfg.Retention.SweepIntervalDuration())

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	identitySvc.RegisterRoutes(srv.Engine)
	reportingSvc.RegisterRoutes(srv.Engine)
	pruner.RegisterRoutes(srv.Engine)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Retention.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Retention scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Retention scheduler disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
