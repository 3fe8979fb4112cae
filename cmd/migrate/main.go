package main

import (
	"context"
	"flag"
	"os"

	"booklibrary/internal/config"
	"booklibrary/internal/logx"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	var (
		command  = flag.String("command", "up", "Migration command: up, down, status, create")
		name     = flag.String("name", "", "Name for 'create' command")
		logLevel = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	loadEnvFiles()
	logger := logx.New(config.LogConfig{Level: *logLevel})
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), *command, *name, logger); err != nil {
		logger.Error("migration failed", zap.String("command", *command), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, command, name string, logger *zap.Logger) error {
	dir := migrationsDir()

	if command == "create" {
		if name == "" {
			return errNameRequired
		}
		if err := goose.Create(nil, dir, name, "sql"); err != nil {
			return err
		}
		logger.Info("migration created", zap.String("name", name), zap.String("dir", dir))
		return nil
	}

	dsn := databaseDSN()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("dsn", config.DatabaseConfig{DSN: dsn}.RedactedDSN()))
	case "down":
		if err := goose.Down(db, dir); err != nil {
			return err
		}
		logger.Info("migration rolled back")
	case "status":
		return goose.Status(db, dir)
	default:
		return errUnknownCommand(command)
	}
	return nil
}
