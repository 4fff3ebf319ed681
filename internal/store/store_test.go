package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateUser(t *testing.T, us *UserStore, email, name string) *model.User {
	t.Helper()
	u, err := us.Create(email, name, "x")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
