package household

import (
	"log/slog"
	"time"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// Notifier delivers best-effort invitation notifications. Implementations
// must not block the caller and must swallow their own failures; the
// service never checks delivery.
type Notifier interface {
	InvitationCreated(inv model.Invitation, householdName, inviterName string)
	InvitationReminder(inv model.Invitation, householdName string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) InvitationCreated(model.Invitation, string, string) {}
func (NopNotifier) InvitationReminder(model.Invitation, string)       {}

// Service implements household membership and invitation operations.
// Every operation takes the acting user's id explicitly; nothing is read
// from ambient state. All authorization goes through the policy
// functions, and every precondition is checked before any write.
type Service struct {
	users       *store.UserStore
	households  *store.HouseholdStore
	members     *store.MembershipStore
	invitations *store.InvitationStore
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	users *store.UserStore,
	households *store.HouseholdStore,
	members *store.MembershipStore,
	invitations *store.InvitationStore,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		users:       users,
		households:  households,
		members:     members,
		invitations: invitations,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// actorMembership loads the actor's membership in a household, mapping
// absence of either to the right failure kind.
func (s *Service) actorMembership(householdID, actorID string) (*model.Membership, error) {
	exists, err := s.households.Exists(householdID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errf(KindNotFound, "household not found")
	}

	m, err := s.members.Get(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errf(KindNotFound, "you are not a member of this household")
	}
	return m, nil
}
