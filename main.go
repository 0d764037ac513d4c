package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mholdt/mail-archiver/archive"
	"github.com/mholdt/mail-archiver/cmd"
	"github.com/mholdt/mail-archiver/config"
	"github.com/mholdt/mail-archiver/engine"
	"github.com/mholdt/mail-archiver/gmail"
	"github.com/mholdt/mail-archiver/imap"
	"github.com/mholdt/mail-archiver/mbox"
	"github.com/mholdt/mail-archiver/progress"
	"github.com/mholdt/mail-archiver/source"
	"github.com/mholdt/mail-archiver/store"
	"github.com/mholdt/mail-archiver/watermark"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mail-archiver",
		Short: "Incrementally archive mailbox messages into a hierarchical file store",
		RunE: func(c *cobra.Command, args []string) error {
			// A local .env is a convenience for credentials; absence
			// is fine.
			_ = godotenv.Load()

			cfg, err := config.LoadConfig(c)
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			slog.SetDefault(logger)
			logger.Info("starting mail-archiver",
				"source", cfg.Source, "store", cfg.StoreKind, "root", cfg.Root, "dryRun", cfg.DryRun)

			return run(c, cfg, logger)
		},
	}

	if err := config.RegisterFlags(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register CLI flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(cmd.NewWatermarkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cobra.Command, cfg config.Config, logger *slog.Logger) error {
	ctx := c.Context()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	marks, err := watermark.Open(cfg.State)
	if err != nil {
		return err
	}
	defer func() {
		_ = marks.Close()
	}()

	st, err := buildStore(c, cfg)
	if err != nil {
		return err
	}

	src, err := buildSource(c, cfg, logger)
	if err != nil {
		return err
	}

	e, err := engine.New(src, st, marks, engine.Options{
		Query:            cfg.Query,
		Granularity:      archive.Granularity(cfg.Granularity),
		Mode:             archive.Mode(cfg.Mode),
		Key:              cfg.WatermarkKey,
		InitialWatermark: cfg.InitialWatermark,
		Location:         loc,
		DryRun:           cfg.DryRun,
	}, logger)
	if err != nil {
		return err
	}

	bar := progress.New(cfg.LogLevel)
	e.SetObserver(bar.Update)

	report, err := e.Run(ctx)
	bar.Stop()
	if err != nil {
		return err
	}

	progress.PrintSummary(report.Summary, report.Duration, report.Watermark, report.Advanced)
	return nil
}

func buildStore(c *cobra.Command, cfg config.Config) (store.Store, error) {
	switch cfg.StoreKind {
	case "drive":
		ts := gmail.TokenSource(c.Context(), googleOptions(cfg))
		return store.NewDrive(c.Context(), ts, cfg.Root)
	default:
		return store.NewFS(cfg.Root)
	}
}

func buildSource(c *cobra.Command, cfg config.Config, logger *slog.Logger) (source.Source, error) {
	switch cfg.Source {
	case "imap":
		return imap.New(imap.Options{
			Host:               cfg.IMAPHost,
			Port:               cfg.IMAPPort,
			Username:           cfg.IMAPUser,
			Password:           cfg.IMAPPass,
			UseTLS:             cfg.UseTLS,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			Mailbox:            cfg.IMAPMailbox,
		}, logger)
	case "mbox":
		return mbox.New(cfg.MboxPath, logger)
	default:
		return gmail.New(c.Context(), googleOptions(cfg), logger)
	}
}

func googleOptions(cfg config.Config) gmail.Options {
	return gmail.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		AccessToken:  cfg.GoogleAccessToken,
		RefreshToken: cfg.GoogleRefreshToken,
	}
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("mail-archiver-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}
