package store

import "testing"

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, err := us.Create("frodo@shire.test", "Frodo", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "frodo@shire.test" || u.Name != "Frodo" {
		t.Errorf("unexpected user: %+v", u)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("get by id returned %+v", got)
	}

	got, err = us.GetByEmail("frodo@shire.test")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("get by email returned %+v", got)
	}

	updated, err := us.Update(u.ID, "frodo@shire.test", "Frodo Baggins")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Frodo Baggins" {
		t.Errorf("updated name = %q", updated.Name)
	}

	if err := us.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestUserEmailUnique(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	mustCreateUser(t, us, "sam@shire.test", "Sam")
	_, err := us.Create("sam@shire.test", "Samwise", "hash")
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestUserGetMissing(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	got, err := us.GetByID("does-not-exist")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing user, got %+v", got)
	}
}
