package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"overseas-housing/internal/config"
	"overseas-housing/internal/db"
)

// Backend es un Store abierto junto con su chequeo de salud y cierre.
type Backend struct {
	Store
	Ping  func(ctx context.Context) error
	Close func()
}

// Open conecta el motor elegido por DATABASE_DRIVER y aplica migraciones si AUTO_MIGRATE está activo.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		logger.Info("storage ready", zap.String("driver", cfg.DatabaseDriver))
		return &Backend{
			Store: NewPgStore(pool),
			Ping:  func(ctx context.Context) error { return db.Ping(ctx, pool) },
			Close: pool.Close,
		}, nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.MigrateSQLite(ctx, conn); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("sqlite migrate: %w", err)
			}
		}
		logger.Info("storage ready", zap.String("driver", cfg.DatabaseDriver), zap.String("path", cfg.SQLitePath))
		return &Backend{
			Store: NewSqliteStore(conn),
			Ping:  conn.PingContext,
			Close: func() { _ = conn.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}
