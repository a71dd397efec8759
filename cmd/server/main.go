package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nbrain-team/paycile/internal/application/service"
	"github.com/nbrain-team/paycile/internal/config"
	"github.com/nbrain-team/paycile/internal/export"
	"github.com/nbrain-team/paycile/internal/infrastructure/persistence/repository"
	"github.com/nbrain-team/paycile/internal/infrastructure/worker"
	httpserver "github.com/nbrain-team/paycile/internal/interfaces/http"
	"github.com/nbrain-team/paycile/internal/matching"
	"github.com/nbrain-team/paycile/pkg/database"
	"github.com/nbrain-team/paycile/pkg/utils"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting reconciliation engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	reconRepo := repository.NewReconciliationRepository(db.DB, logger)
	waterfallRepo := repository.NewWaterfallRepository(db.DB, logger)

	// Matching engine
	engineCfg := cfg.Matching.EngineConfig()
	if err := engineCfg.Validate(); err != nil {
		logger.Fatal("Invalid matching configuration", zap.Error(err))
	}
	engine := matching.NewEngine(engineCfg)

	// Services
	serviceLogger := utils.NewSugaredAdapter(logger)
	reconService := service.NewReconciliationService(reconRepo, paymentRepo, invoiceRepo, engine, serviceLogger)
	allocationService := service.NewAllocationService(paymentRepo, invoiceRepo, reconRepo, waterfallRepo, serviceLogger)
	waterfallService := service.NewWaterfallService(waterfallRepo, serviceLogger)
	exporter := export.NewExporter(reconRepo, paymentRepo, invoiceRepo)

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := worker.NewManager(logger)
	if cfg.Worker.Enabled {
		manager.Register(worker.NewMatchingWorker(reconService, cfg.Worker.Interval, logger))
		if err := manager.StartAll(ctx); err != nil {
			logger.Fatal("Failed to start workers", zap.Error(err))
		}
	}

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, reconService, allocationService, waterfallService, exporter, serviceLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	if cfg.Worker.Enabled {
		if err := manager.StopAll(); err != nil {
			logger.Error("Failed to stop workers", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	logger.Info("Server stopped")
}
