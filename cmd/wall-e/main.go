package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Mounikaran/wall-e-mail/internal/config"
	"github.com/Mounikaran/wall-e-mail/internal/mailbox"
	"github.com/Mounikaran/wall-e-mail/internal/processor"
	"github.com/Mounikaran/wall-e-mail/internal/rules"
	"github.com/Mounikaran/wall-e-mail/internal/storage"
)

func main() {
	count := flag.Int("count", 0, "maximum number of emails to process (0 = no cap)")
	days := flag.Int("days", 0, "number of days to look back for emails")
	onlyUnread := flag.Bool("only-unread", false, "process only unread emails")
	dryRun := flag.Bool("dry-run", false, "evaluate rules without applying actions")
	flag.Parse()

	if err := run(*count, *days, *onlyUnread, *dryRun); err != nil {
		slog.Error("wall-e failed", "error", err)
		os.Exit(1)
	}
}

func run(count, days int, onlyUnread, dryRun bool) error {
	if count < 0 || (count == 0 && flagSet("count")) {
		return fmt.Errorf("count must be at least 1")
	}
	if days < 0 || (days == 0 && flagSet("days")) {
		return fmt.Errorf("days must be at least 1")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg.LogLevel)

	if count == 0 && days == 0 {
		days = 7
		log.Info("no filters specified, defaulting to days=7")
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mb, err := mailbox.NewGmail(ctx, mailbox.GmailConfig{
		CredentialsPath: cfg.CredentialsPath,
		TokenPath:       cfg.TokenPath,
		RPS:             cfg.GmailRPS,
	}, log)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	engine := rules.Load(cfg.RulesPath, log)

	proc := processor.New(mb, store, engine, log)
	proc.SetDryRun(dryRun)

	stats := proc.Run(ctx, mailbox.FetchOptions{
		MaxResults: count,
		Days:       days,
		OnlyUnread: onlyUnread,
	})
	log.Info("run complete",
		"batches", stats.Batches, "fetched", stats.Fetched, "processed", stats.Processed)
	return nil
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
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
