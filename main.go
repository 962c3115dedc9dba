package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowtasks/internal/config"
	"flowtasks/internal/database"
	"flowtasks/internal/logging"
	"flowtasks/internal/router"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// load configuration; FLOWTASKS_CONFIG points at an explicit file
	cfg, err := config.Load(os.Getenv("FLOWTASKS_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.Log, os.Stderr)
	slog.SetDefault(log)

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not configured")
	}

	db, err := database.Init(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	created, err := database.SeedAdmin(db, cfg.Admin, cfg.Security.BcryptCost)
	if err != nil {
		return err
	}
	if created {
		log.Info("bootstrap admin created", "email", cfg.Admin.Email)
	}

	r := router.SetupRouter(cfg, db, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
