package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wedding-booking/cmd"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/notifier"
	"wedding-booking/internal/wire"
	"wedding-booking/pkg/database"
	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using zap production logger.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("notifier", config.Notifier.Driver),
	)

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	n, closeNotifier, err := newNotifier(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialise notifier", zap.Error(err))
	}

	app := wire.Wiring(repos, n, config, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if config.Scheduler.Enabled {
		app.Scheduler.Start(ctx)
	} else {
		logger.Warn("Scheduler disabled, reconciliation will not run")
	}

	server := cmd.APIServer(app.Router, config.App.Port)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	stop()
	app.Scheduler.Stop()

	if err := closeNotifier(); err != nil {
		logger.Error("Failed to close notifier", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

func newNotifier(config *utils.Config, logger *zap.Logger) (notifier.Notifier, func() error, error) {
	switch config.Notifier.Driver {
	case "kafka":
		k, err := notifier.NewKafkaNotifier(config.Notifier.KafkaBrokers, config.Notifier.KafkaTopic, config.App.Name, logger)
		if err != nil {
			return nil, nil, err
		}
		return k, k.Close, nil
	default:
		return notifier.NewLogNotifier(logger), func() error { return nil }, nil
	}
}
