package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	irbisadapter "github.com/ericfisherdev/realyou/internal/adapter/driven/irbis"
	secretadapter "github.com/ericfisherdev/realyou/internal/adapter/driven/secret"
	sqliteadapter "github.com/ericfisherdev/realyou/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/realyou/internal/adapter/driving/cli"
	"github.com/ericfisherdev/realyou/internal/application"
	"github.com/ericfisherdev/realyou/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	// 1. Parse flags; -h exits cleanly.
	opts, shouldExit, err := cli.Parse(args, stdout)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// 2. Configure logging. Routine progress is shown by the renderer, so the
	// log only carries warnings unless -d is given.
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString()))

	// 3. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Debug("config loaded",
		"base_url", cfg.BaseURL,
		"key_path", cfg.KeyPath,
		"db_path", cfg.DBPath,
		"http_timeout", cfg.HTTPTimeout,
	)

	// 4. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Open the state database and run migrations.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Debug("database ready", "path", db.Path())

	// 6. Wire adapters. The key file is created on first seal or open.
	secrets := secretadapter.NewStore(cfg.KeyPath)
	credentialStore := sqliteadapter.NewCredentialRepo(db, secrets)

	api, err := irbisadapter.NewClient(cfg.BaseURL, cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	// 7. Create services and the CLI.
	render := cli.NewRenderer(stdout, !opts.NoColor && !color.NoColor)
	credentialSvc := application.NewCredentialService(credentialStore, api)
	lookupSvc := application.NewLookupService(api, application.Schedule{
		PollSteps:   cfg.PollSteps,
		SettleSteps: cfg.SettleSteps,
		Step:        cfg.Step,
	}, render.Progress)

	app := cli.NewApp(stdin, render, credentialSvc, lookupSvc)
	return app.Run(ctx, opts)
}
