package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"gofr.dev/spanverify/internal/archive"
	"gofr.dev/spanverify/internal/receiver"
)

func main() {
	envFile := flag.String("env", ".env", "file with SPANRECEIVER_* variables")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(*envFile, logger); err != nil {
		logger.Error("span receiver stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(envFile string, logger *zap.Logger) error {
	cfg, err := receiver.LoadConfig(envFile)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	store := archive.New(db)

	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	rcv := receiver.New(cfg, store, logger)
	if err := rcv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return rcv.Shutdown(shutdownCtx)
}
