package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool used by Postgres.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres keeps the token in one row of console_session_slots.
type Postgres struct {
	db   Querier
	slot string
}

// NewPostgres returns a store bound to the named slot.
func NewPostgres(db Querier, slot string) *Postgres {
	return &Postgres{db: db, slot: slot}
}

const (
	selectSlotSQL = `SELECT token FROM console_session_slots WHERE slot = $1`
	upsertSlotSQL = `INSERT INTO console_session_slots (slot, token, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (slot) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()`
	deleteSlotSQL = `DELETE FROM console_session_slots WHERE slot = $1`
)

func (p *Postgres) Read(ctx context.Context) (string, bool, error) {
	var token string
	if err := p.db.QueryRow(ctx, selectSlotSQL, p.slot).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, unavailable("read", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (p *Postgres) Write(ctx context.Context, token string) error {
	if _, err := p.db.Exec(ctx, upsertSlotSQL, p.slot, token); err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, deleteSlotSQL, p.slot); err != nil {
		return unavailable("clear", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	var one int
	if err := p.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
