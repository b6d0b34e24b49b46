package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/medash/medash-go/internal/config"
	"github.com/medash/medash-go/internal/panel"
	"github.com/medash/medash-go/internal/repository"
	"github.com/medash/medash-go/internal/service"
	"github.com/medash/medash-go/internal/shell"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medash: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr, command output to stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	store, err := repository.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	dashboards := service.NewDashboardService(store, logger, cfg.GridColumns)
	sessions := service.NewSessionService(store, dashboards, logger, cfg.JWTSecret, cfg.JWTExpiry)
	if err := sessions.LoadTheme(ctx); err != nil {
		logger.Warn("loading theme", "error", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "medash> ",
		HistoryFile:     cfg.ShellHistory,
		AutoComplete:    shell.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), "Welcome to Me.Dash! Use 'login <email>' to start and 'help' for the list of commands.")

	sh := shell.New(sessions, dashboards, panel.NewRegistry(), cfg.ShareURL, rl.Stdout())
	return sh.Run(ctx, rl)
}
