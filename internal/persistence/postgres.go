package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/config"
	"github.com/spec-kit/asset-console/internal/store"
)

const sessionTable = "console_session_slots"

// ErrSchemaMissing is returned when the session slot table does not exist and
// migrations are disabled.
var ErrSchemaMissing = errors.New("session slot table missing")

// Postgres owns the pgx pool backing the postgres session store.
type Postgres struct {
	pool   *pgxpool.Pool
	cfg    config.PostgresConfig
	logger *zap.Logger
}

// NewPostgres opens and pings a pool for the configured DSN.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Bool("run_migrations", cfg.RunMigrations),
	)
	return &Postgres{pool: pool, cfg: cfg, logger: logger}, nil
}

// poolConfig maps the console's postgres settings onto a pgx pool config.
func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn not provided")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	return poolCfg, nil
}

// SessionStore prepares the slot table and returns the store bound to slot.
func (p *Postgres) SessionStore(ctx context.Context, slot string) (*store.Postgres, error) {
	return sessionStore(ctx, p.pool, slot, p.cfg.RunMigrations, p.logger)
}

// sessionStore applies migrations when enabled, otherwise requires the slot
// table to exist already.
func sessionStore(ctx context.Context, db store.Querier, slot string, migrate bool, logger *zap.Logger) (*store.Postgres, error) {
	if migrate {
		if err := RunMigrations(ctx, db, logger); err != nil {
			return nil, err
		}
	} else {
		var exists bool
		if err := db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, sessionTable).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check %s: %w", sessionTable, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: set POSTGRES_RUN_MIGRATIONS=true or create %s", ErrSchemaMissing, sessionTable)
		}
	}

	logger.Info("postgres session store ready", zap.String("table", sessionTable), zap.String("slot", slot))
	return store.NewPostgres(db, slot), nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}
