package persistence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type recordingExecer struct {
	statements []string
	err        error
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag{}, r.err
}

func TestRunMigrationsAppliesSessionSlotTable(t *testing.T) {
	db := &recordingExecer{}
	if err := RunMigrations(context.Background(), db, zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if len(db.statements) == 0 {
		t.Fatal("expected at least one migration")
	}
	if !strings.Contains(db.statements[0], "console_session_slots") {
		t.Fatalf("first migration should create the slot table, got %q", db.statements[0])
	}
}

func TestRunMigrationsWrapsFailure(t *testing.T) {
	cause := errors.New("permission denied")
	err := RunMigrations(context.Background(), &recordingExecer{err: cause}, zap.NewNop())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
