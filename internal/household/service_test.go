package household

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// recordingNotifier captures notification calls synchronously.
type recordingNotifier struct {
	created   []model.Invitation
	reminders []model.Invitation
}

func (n *recordingNotifier) InvitationCreated(inv model.Invitation, householdName, inviterName string) {
	n.created = append(n.created, inv)
}

func (n *recordingNotifier) InvitationReminder(inv model.Invitation, householdName string) {
	n.reminders = append(n.reminders, inv)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc      *Service
	notifier *recordingNotifier
	users    *store.UserStore
	members  *store.MembershipStore
	invs     *store.InvitationStore

	household *model.Household
	owner     *model.User
	admin     *model.User
	member    *model.User
	outsider  *model.User
}

// newFixture builds a service over an in-memory database with one
// household: owner, admin, and member are members with those roles,
// outsider belongs to nothing.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	members := store.NewMembershipStore(db)
	invs := store.NewInvitationStore(db)

	notifier := &recordingNotifier{}
	svc := NewService(users, households, members, invs, notifier, testLogger())

	f := &fixture{
		svc:      svc,
		notifier: notifier,
		users:    users,
		members:  members,
		invs:     invs,
	}

	f.owner = f.createUser(t, "owner@test.dev", "Olwen")
	f.admin = f.createUser(t, "admin@test.dev", "Arden")
	f.member = f.createUser(t, "member@test.dev", "Morgan")
	f.outsider = f.createUser(t, "outsider@test.dev", "Onni")

	h, _, err := svc.CreateHousehold(f.owner.ID, "Home")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	f.household = h

	if _, err := svc.AddMember(h.ID, f.owner.ID, f.admin.ID, model.RoleAdmin); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	if _, err := svc.AddMember(h.ID, f.owner.ID, f.member.ID, model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	return f
}

func (f *fixture) createUser(t *testing.T, email, name string) *model.User {
	t.Helper()
	u, err := f.users.Create(email, name, "x")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// membershipOf fails the test when the user has no membership.
func (f *fixture) membershipOf(t *testing.T, userID string) *model.Membership {
	t.Helper()
	m, err := f.members.Get(f.household.ID, userID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m == nil {
		t.Fatalf("no membership for user %s", userID)
	}
	return m
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("error kind = %v, want %v (err: %v)", got, kind, err)
	}
}
