package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-export-bot/internal/adapters/exporter"
	"chat-export-bot/internal/cache"
	"chat-export-bot/internal/core/services"
	"chat-export-bot/internal/log"
	"chat-export-bot/internal/pkg/config"
	"chat-export-bot/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	configPath := flag.String("config", "config.yml", "path to server config file")
	flag.Parse()

	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger, err := log.NewLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	// 4. Инициализация зависимостей
	cacheStore := cache.NewCacheStore(cfg.Processing.CacheTTL)
	cacheStore.StartCleanupTicker(appCtx, cfg.Processing.CleanupInterval)

	processor := services.NewDocumentProcessor(
		services.WithCache(cacheStore),
		services.WithProcessorLogger(logger.With(slog.String("component", "processor"))),
	)
	sessions := server.NewSessionRegistry(cfg.Processing.SessionTTL)

	// 5. Создание HTTP-сервера
	srv := server.New(cfg, processor, exporter.NewExcelRenderer(), sessions, logger.With(slog.String("component", "http")))
	srv.StartBackground(appCtx)

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		logger.Info("Starting server", slog.String("addr", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", slog.String("error", err.Error()))
			appCancel()
		}
	}()

	<-appCtx.Done()
	logger.Info("Signal received, shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	<-serverDone
	logger.Info("Application exited gracefully")
	return nil
}
