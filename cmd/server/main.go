package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/procurehq/procureflow/internal/application/service"
	"github.com/procurehq/procureflow/internal/config"
	"github.com/procurehq/procureflow/internal/infrastructure/persistence/repository"
	persistence "github.com/procurehq/procureflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/procurehq/procureflow/internal/interfaces/http"
	"github.com/procurehq/procureflow/pkg/database"
	"github.com/procurehq/procureflow/pkg/utils"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
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

	logger.Info("Starting purchase approval service",
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
	if err := migrator.Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	store := persistence.NewDB(db.DB, logger)

	requestRepo := repository.NewRequestRepository(store, logger)
	itemRepo := repository.NewItemRepository(store, logger)
	stepRepo := repository.NewStepRepository(store, logger)
	noteRepo := repository.NewNoteRepository(store, logger)
	policyRepo := repository.NewPolicyRepository(store, logger)

	serviceLogger := utils.NewKVLogger(logger, "service")
	requestService := service.NewRequestService(requestRepo, itemRepo, stepRepo, noteRepo, policyRepo, store, serviceLogger)
	decisionService := service.NewDecisionService(requestRepo, itemRepo, stepRepo, noteRepo, store, serviceLogger)
	financeService := service.NewFinanceService(requestRepo, itemRepo, stepRepo, noteRepo, store, serviceLogger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Auth.JWTSecret,
	}, requestService, decisionService, financeService, logger, serviceLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
