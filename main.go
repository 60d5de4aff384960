package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mailread/config"
	"mailread/imap"
	"mailread/mbox"
	"mailread/printer"
	"mailread/reader"
	"mailread/state"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailread [flags] ID...",
		Short: "Read messages from a configured mail account",
		Long: `Read a human-friendly version of the messages associated to the given
envelope ids. Reading a message applies the seen flag to its envelope;
use --preview to read without marking anything.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd, args)
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
			logger.Info("reading messages", "folder", cfg.Folder, "ids", cfg.IDs, "preview", cfg.Preview)

			return run(cmd, cfg, logger)
		},
	}

	config.RegisterFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg config.Config, logger *slog.Logger) error {
	account, err := config.ResolveAccount(cfg.ConfigPath, cfg.AccountName)
	if err != nil {
		return &reader.ConfigError{Account: cfg.AccountName, Err: err}
	}

	backend, err := buildBackend(account, logger)
	if err != nil {
		return &reader.FetchError{Folder: cfg.Folder, Err: err}
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("backend close failed", "err", err)
		}
	}()

	out, err := printer.New(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	r := reader.New(backend, out, account.ReadHeaders, logger)
	return r.Run(cmd.Context(), reader.Params{
		Folder:  cfg.Folder,
		IDs:     cfg.IDs,
		Preview: cfg.Preview,
		Policy:  cfg.Policy,
	})
}

func buildBackend(account *config.Account, logger *slog.Logger) (reader.Backend, error) {
	switch account.Backend {
	case config.BackendIMAP:
		return imap.Connect(imap.Options{
			Host:               account.IMAP.Host,
			Port:               account.IMAP.Port,
			Username:           account.IMAP.Username,
			Password:           account.IMAP.Password,
			UseTLS:             account.IMAP.TLSEnabled(),
			InsecureSkipVerify: account.IMAP.InsecureSkipVerify,
		}, logger)
	case config.BackendMbox:
		tracker, err := state.NewFileTracker(account.Mbox.StateDir)
		if err != nil {
			return nil, fmt.Errorf("state tracker: %w", err)
		}
		return mbox.Open(mbox.Options{Path: account.Mbox.Path}, tracker, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", account.Backend)
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

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("mailread-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		// Logs go to stderr so stdout stays clean for the result.
		handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler), cleanup, nil
}
