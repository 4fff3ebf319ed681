package store

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ss := NewSessionStore(db)

	u := mustCreateUser(t, us, "bilbo@test.dev", "Bilbo")

	sess, err := ss.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.UserID != u.ID {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, err = ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("session survived delete: %+v", got)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ss := NewSessionStore(db)

	u := mustCreateUser(t, us, "gandalf@test.dev", "Gandalf")
	sess, err := ss.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := db.Exec(
		`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Minute), sess.ID,
	); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Errorf("expired session returned: %+v", got)
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}
}
