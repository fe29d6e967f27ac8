package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sevlyar/go-daemon"

	"chat-export-bot/cmd/bot/config"
	"chat-export-bot/internal/adapters/exporter"
	"chat-export-bot/internal/bot"
	"chat-export-bot/internal/cache"
	"chat-export-bot/internal/core/services"
	"chat-export-bot/internal/log"
)

func main() {
	configPath := flag.String("config", "bot_config.yml", "path to bot config file")
	detach := flag.Bool("daemon", false, "run in background (pid and log files from config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load bot config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate bot config: %v\n", err)
		os.Exit(1)
	}

	if *detach {
		dctx := &daemon.Context{
			PidFileName: cfg.Daemon.PidFile,
			PidFilePerm: 0o644,
			LogFileName: cfg.Daemon.LogFile,
			LogFilePerm: 0o640,
			WorkDir:     cfg.Daemon.WorkDir,
			Umask:       0o27,
			Args:        os.Args,
		}
		child, err := dctx.Reborn()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to daemonize: %v\n", err)
			os.Exit(1)
		}
		if child != nil {
			fmt.Printf("bot started in background, pid %d\n", child.Pid)
			return
		}
		defer dctx.Release()
	}

	logger, err := log.NewLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	if err := tgbotapi.SetLogger(log.NewTGBotAPIAdapter(logger)); err != nil {
		logger.Warn("failed to set tgbotapi logger", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Повторно присланные файлы разбираются из кэша.
	parseCache := cache.NewCacheStore(30 * time.Minute)
	parseCache.StartCleanupTicker(ctx, 5*time.Minute)

	processor := services.NewDocumentProcessor(
		services.WithCache(parseCache),
		services.WithProcessorLogger(logger.With(slog.String("component", "processor"))),
	)

	b, err := bot.NewBot(cfg.Bot, processor, exporter.NewExcelRenderer(), logger.With(slog.String("component", "bot")))
	if err != nil {
		logger.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Bot created successfully, starting...",
		slog.Int64("max_size", cfg.Bot.MaxSize),
		slog.Int("inline_threshold", cfg.Bot.InlineThreshold),
		slog.String("timezone", cfg.Bot.Timezone))

	b.Start(ctx)

	logger.Info("Bot stopped gracefully")
}
