package store

import (
	"errors"
	"testing"

	"github.com/dukerupert/hearth/internal/model"
)

func TestMembershipUnique(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	ms := NewMembershipStore(db)

	owner := mustCreateUser(t, us, "o@test.dev", "O")
	u := mustCreateUser(t, us, "u@test.dev", "U")
	h, _, err := hs.CreateWithOwner("Home", owner.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	if _, err := ms.Insert(h.ID, u.ID, model.RoleMember); err != nil {
		t.Fatalf("insert membership: %v", err)
	}
	_, err = ms.Insert(h.ID, u.ID, model.RoleAdmin)
	if err == nil {
		t.Fatal("expected error for duplicate membership")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestUpdateRoleAndDelete(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	ms := NewMembershipStore(db)

	owner := mustCreateUser(t, us, "o@test.dev", "O")
	u := mustCreateUser(t, us, "u@test.dev", "U")
	h, _, _ := hs.CreateWithOwner("Home", owner.ID)

	m, err := ms.Insert(h.ID, u.ID, model.RoleMember)
	if err != nil {
		t.Fatalf("insert membership: %v", err)
	}

	promoted, err := ms.UpdateRole(m.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if promoted.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", promoted.Role)
	}

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete membership: %v", err)
	}
	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("membership survived delete: %+v", got)
	}
}

func TestTransferOwnership(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	ms := NewMembershipStore(db)

	owner := mustCreateUser(t, us, "o@test.dev", "O")
	next := mustCreateUser(t, us, "n@test.dev", "N")
	h, _, _ := hs.CreateWithOwner("Home", owner.ID)
	if _, err := ms.Insert(h.ID, next.ID, model.RoleMember); err != nil {
		t.Fatalf("insert member: %v", err)
	}

	if err := ms.TransferOwnership(h.ID, owner.ID, next.ID); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}

	old, _ := ms.Get(h.ID, owner.ID)
	if old.Role != model.RoleAdmin {
		t.Errorf("previous owner role = %q, want admin", old.Role)
	}
	cur, _ := ms.Get(h.ID, next.ID)
	if cur.Role != model.RoleOwner {
		t.Errorf("new owner role = %q, want owner", cur.Role)
	}

	// Exactly one owner after the transfer
	var owners int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM household_members WHERE household_id = ? AND role = 'owner'`, h.ID,
	).Scan(&owners); err != nil {
		t.Fatalf("count owners: %v", err)
	}
	if owners != 1 {
		t.Errorf("owner count = %d, want 1", owners)
	}
}

func TestTransferOwnershipConflict(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	ms := NewMembershipStore(db)

	owner := mustCreateUser(t, us, "o@test.dev", "O")
	a := mustCreateUser(t, us, "a@test.dev", "A")
	h, _, _ := hs.CreateWithOwner("Home", owner.ID)
	if _, err := ms.Insert(h.ID, a.ID, model.RoleMember); err != nil {
		t.Fatalf("insert member: %v", err)
	}

	// The from user is not the owner, so the transfer must fail and
	// leave both roles untouched.
	err := ms.TransferOwnership(h.ID, a.ID, owner.ID)
	if !errors.Is(err, ErrTransferConflict) {
		t.Fatalf("expected ErrTransferConflict, got %v", err)
	}

	om, _ := ms.Get(h.ID, owner.ID)
	if om.Role != model.RoleOwner {
		t.Errorf("owner role changed to %q", om.Role)
	}
	am, _ := ms.Get(h.ID, a.ID)
	if am.Role != model.RoleMember {
		t.Errorf("member role changed to %q", am.Role)
	}
}
