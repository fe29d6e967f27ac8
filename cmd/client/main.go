package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-export-bot/internal/adapters/exporter"
	"chat-export-bot/internal/adapters/source"
	"chat-export-bot/internal/core/output"
	"chat-export-bot/internal/core/services"
	"chat-export-bot/internal/core/session"
	"chat-export-bot/internal/log"
	"chat-export-bot/internal/pkg/term"
	"chat-export-bot/internal/ports"
	"chat-export-bot/internal/server/usecase"
)

const defaultMaxSize = 10 * 1024 * 1024

var errEmptyResult = errors.New("нет данных о переписке: ни в одном файле не найдено участников")

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	threshold := flag.Int("threshold", output.DefaultThreshold, "inline output is used below this number of participants")
	format := flag.String("format", "auto", "output format: auto, text or xlsx")
	outPath := flag.String("out", "", "workbook path for xlsx output (default participants_<timestamp>.xlsx)")
	maxSize := flag.Int64("max-size", defaultMaxSize, "maximum size of one export file in bytes")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: client [flags] <result1.json> <result2.json> ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		return errors.New("не указан ни один файл")
	}
	switch *format {
	case "auto", "text", "xlsx":
	default:
		return fmt.Errorf("неизвестный формат %q", *format)
	}

	logger, err := log.NewLogger(os.Stderr, *logLevel, "text")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources := make([]ports.DataSource, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, source.NewCliSource(p, *maxSize))
	}

	processor := services.NewDocumentProcessor(services.WithProcessorLogger(logger))
	uc := usecase.NewIngestUseCase(processor, logger)

	sess := session.New()
	outcomes, err := uc.Ingest(ctx, sess, sources)
	if err != nil {
		return fmt.Errorf("обработка прервана: %w", err)
	}
	for _, o := range outcomes {
		if !o.OK() {
			_, _ = fmt.Fprintf(os.Stderr, "Файл %s пропущен: %s\n", o.File, o.Error)
		}
	}

	stats := sess.Stats()
	if stats.Participants == 0 {
		return errEmptyResult
	}

	mode := output.ModeSpreadsheet
	switch *format {
	case "auto":
		mode = output.Choose(stats.Participants, *threshold)
	case "text":
		mode = output.ModeInline
	}

	if mode == output.ModeInline {
		return printParticipants(sess)
	}
	return writeWorkbook(sess, *outPath)
}

// printParticipants выводит список; в терминале вместо списка рисуется таблица по его ширине.
func printParticipants(sess *session.Session) error {
	var opts []exporter.ConsoleOption
	if width, ok := term.TableWidth(os.Stdout); ok {
		opts = append(opts, exporter.WithTable(width))
	}
	return exporter.NewConsoleExporter(os.Stdout, opts...).Export(sess.Participants())
}

func writeWorkbook(sess *session.Session, path string) error {
	exportedAt := time.Now().UTC()
	if last := sess.Stats().LastExportedAt; last != nil {
		exportedAt = *last
	}

	data, err := exporter.NewExcelRenderer().Render(sess.AsRows(&exportedAt))
	if err != nil {
		return fmt.Errorf("не удалось сформировать книгу: %w", err)
	}

	if path == "" {
		path = exporter.WorkbookFileName(time.Now())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("не удалось записать %s: %w", path, err)
	}
	fmt.Printf("Таблица сохранена: %s\n", path)
	return nil
}
