package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/spazza/bi-mail-service/internal/config"
	"github.com/spazza/bi-mail-service/internal/mailer"
	"github.com/spazza/bi-mail-service/internal/report"
	"github.com/spazza/bi-mail-service/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "download":
		err = runDownload(os.Args[2:])
	case "send":
		err = runSend(os.Args[2:])
	case "upload":
		err = runUpload(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  bi-mail download -report NAME [-page N] [-config FILE]
  bi-mail send     -report NAME -subject SUBJECT [-page N] [-config FILE]
  bi-mail upload   -report NAME -dir PATH [-config FILE]`)
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	name := fs.String("report", "", "report identifier")
	page := fs.Int("page", 0, "page to embed as preview image later (0 = none)")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("-report is required")
	}

	cfg, logger, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}

	path, err := report.NewLocator(cfg, st, logger).Download(ctx, *name, *page)
	if err != nil {
		return fmt.Errorf("locate: %w", err)
	}
	logger.Info("download finished", "report", *name, "path", path)
	return nil
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	name := fs.String("report", "", "report identifier")
	subject := fs.String("subject", "", "email subject")
	page := fs.Int("page", 0, "PDF page to embed as inline image (0 = none)")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("-report is required")
	}
	if *subject == "" {
		return fmt.Errorf("-subject is required")
	}

	cfg, logger, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	smtp := mailer.NewSMTP(cfg.SMTP, logger)
	if err := report.NewComposer(cfg, smtp, logger).Send(*name, *subject, *page); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to configuration file")
	name := fs.String("report", "", "report identifier")
	dir := fs.String("dir", "", "local directory to upload")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("-report is required")
	}
	if *dir == "" {
		return fmt.Errorf("-dir is required")
	}

	cfg, logger, err := bootstrap(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}

	if _, err := report.NewUploader(cfg, st, logger).Upload(ctx, *name, *dir); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func bootstrap(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, setupLogger(cfg.LogLevel), nil
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
