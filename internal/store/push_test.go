package store

import "testing"

func TestPushUpsert(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ps := NewPushStore(db)

	u := mustCreateUser(t, us, "push@test.dev", "Push")

	sub, err := ps.Upsert(u.ID, "https://push.example/ep1", "p256dh", "auth", "phone")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub.DeviceName != "phone" {
		t.Errorf("device name = %q", sub.DeviceName)
	}

	// Same endpoint replaces keys instead of duplicating.
	again, err := ps.Upsert(u.ID, "https://push.example/ep1", "p256dh-2", "auth-2", "phone")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.P256dhKey != "p256dh-2" {
		t.Errorf("p256dh = %q, want updated key", again.P256dhKey)
	}

	subs, err := ps.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("subscription count = %d, want 1", len(subs))
	}
}

func TestPushDeleteScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ps := NewPushStore(db)

	a := mustCreateUser(t, us, "a@test.dev", "A")
	b := mustCreateUser(t, us, "b@test.dev", "B")

	sub, err := ps.Upsert(a.ID, "https://push.example/ep", "k", "a", "laptop")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Another user cannot delete it.
	if err := ps.Delete(sub.ID, b.ID); err != nil {
		t.Fatalf("delete as other user: %v", err)
	}
	subs, _ := ps.ListByUser(a.ID)
	if len(subs) != 1 {
		t.Fatal("subscription deleted by wrong user")
	}

	if err := ps.Delete(sub.ID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ = ps.ListByUser(a.ID)
	if len(subs) != 0 {
		t.Fatal("subscription not deleted by owner")
	}
}
