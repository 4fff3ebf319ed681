package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dukerupert/hearth/internal/database"
)

func TestIsBusyClassification(t *testing.T) {
	if IsBusy(nil) {
		t.Error("nil is not busy")
	}
	if IsBusy(errors.New("plain error")) {
		t.Error("unrelated error classified as busy")
	}
}

func TestIsBusyOnHeldWriteLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.db")
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Second handle that fails immediately instead of waiting out the
	// lock.
	rival, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(0)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open rival handle: %v", err)
	}
	t.Cleanup(func() { rival.Close() })

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		t.Fatalf("take write lock: %v", err)
	}
	t.Cleanup(func() {
		conn.ExecContext(ctx, "ROLLBACK")
		conn.Close()
	})

	_, err = NewUserStore(rival).Create("busy@test.dev", "Busy", "x")
	if err == nil {
		t.Fatal("write succeeded while the lock was held")
	}
	if !IsBusy(err) {
		t.Fatalf("IsBusy(%v) = false", err)
	}
}
