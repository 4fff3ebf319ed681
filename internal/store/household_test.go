package store

import (
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

func TestCreateWithOwner(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	ms := NewMembershipStore(db)

	owner := mustCreateUser(t, us, "owner@test.dev", "Owner")

	h, m, err := hs.CreateWithOwner("Bag End", owner.ID)
	if err != nil {
		t.Fatalf("create with owner: %v", err)
	}
	if h.Name != "Bag End" {
		t.Errorf("name = %q", h.Name)
	}
	if m.Role != model.RoleOwner {
		t.Errorf("creator role = %q, want owner", m.Role)
	}
	if m.HouseholdID != h.ID || m.UserID != owner.ID {
		t.Errorf("membership not linked: %+v", m)
	}

	members, err := ms.List(h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
}

func TestListForUser(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)

	u := mustCreateUser(t, us, "pippin@test.dev", "Pippin")
	other := mustCreateUser(t, us, "merry@test.dev", "Merry")

	if _, _, err := hs.CreateWithOwner("Tuckborough", u.ID); err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, _, err := hs.CreateWithOwner("Buckland", other.ID); err != nil {
		t.Fatalf("create household: %v", err)
	}

	list, err := hs.ListForUser(u.ID)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Tuckborough" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestDeleteHouseholdCascades(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	ms := NewMembershipStore(db)
	is := NewInvitationStore(db)

	owner := mustCreateUser(t, us, "o@test.dev", "O")
	guest := mustCreateUser(t, us, "g@test.dev", "G")

	h, _, err := hs.CreateWithOwner("Doomed", owner.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	inv, err := is.Insert(h.ID, guest.ID, owner.ID, model.RoleMember, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("insert invitation: %v", err)
	}

	if err := hs.Delete(h.ID); err != nil {
		t.Fatalf("delete household: %v", err)
	}

	members, err := ms.List(h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("memberships survived household delete: %+v", members)
	}

	got, err := is.GetByID(inv.ID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if got != nil {
		t.Errorf("invitation survived household delete: %+v", got)
	}
}
