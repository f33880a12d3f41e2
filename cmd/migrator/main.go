package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/shared/config"
	"github.com/radieske/gold-ledger/internal/shared/db"
	"github.com/radieske/gold-ledger/internal/shared/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	down := flag.Bool("down", false, "reverte todas as migrations")
	flag.Parse()

	cfg := config.LoadFor("migrator")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(context.Background(), cfg.PostgresDSN, *down); err != nil {
		log.Fatal("migration run failed", zap.Error(err))
	}
	log.Info("migration run finished", zap.Bool("down", *down))
}

func run(ctx context.Context, dsn string, down bool) error {
	pg, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	defer pg.Close()

	driver, err := postgres.WithInstance(pg, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
