// Command identity bootstraps the identity core: it provisions the token
// key pairs, connects and migrates the credential store, seeds the admin
// user and exits once everything is ready.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/identity/internal/logging"
	"github.com/dmitrijs2005/identity/internal/server"
	"github.com/dmitrijs2005/identity/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger logging.Logger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return app.Close(ctx)
}
