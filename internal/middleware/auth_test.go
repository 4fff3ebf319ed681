package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/store"
)

func TestRequireAuth(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db)

	user, err := users.Create("alice@test.dev", "Alice", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := sessions.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotUserID string
	handler := RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserID(r.Context())
	}))

	// No cookie.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/households", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no cookie status = %d, want 401", rec.Code)
	}

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/households", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-token"})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	// Valid session.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/households", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid session status = %d, want 200", rec.Code)
	}
	if gotUserID != user.ID {
		t.Errorf("context user = %q, want %q", gotUserID, user.ID)
	}
}
