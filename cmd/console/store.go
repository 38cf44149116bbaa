package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-console/internal/config"
	"github.com/spec-kit/asset-console/internal/persistence"
	"github.com/spec-kit/asset-console/internal/store"
)

// openStore builds the session store selected by SESSION_STORE_DRIVER and
// returns a func releasing its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Session.Driver {
	case config.DriverMemory:
		return store.NewMemory(), func() {}, nil

	case config.DriverRedis:
		r := persistence.NewRedis(cfg.Redis, logger)
		return r.SessionStore(cfg.Session.Slot), r.Close, nil

	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		st, err := pg.SessionStore(ctx, cfg.Session.Slot)
		if err != nil {
			pg.Close()
			return nil, nil, err
		}
		return st, pg.Close, nil

	case config.DriverFile, "":
		f := store.NewFile(cfg.Session.FilePath)
		logger.Info("using file session store", zap.String("path", f.Path()))
		return f, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store driver %q", cfg.Session.Driver)
	}
}
