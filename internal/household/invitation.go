package household

import (
	"time"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// defaultInvitationTTL is applied when the inviter does not pick an
// expiry.
const defaultInvitationTTL = 7 * 24 * time.Hour

// SendInvitationInput identifies the invited user by id or by email.
// Exactly one must be set.
type SendInvitationInput struct {
	InvitedUserID string
	InvitedEmail  string
	Role          model.Role
	ExpiresAt     *time.Time
}

// SendInvitation creates a pending invitation and notifies the invited
// user. Notification failures never fail the invitation.
func (s *Service) SendInvitation(householdID, actorID string, in SendInvitationInput) (*model.Invitation, error) {
	if (in.InvitedUserID == "") == (in.InvitedEmail == "") {
		return nil, errf(KindValidation, "exactly one of user id or email must be provided")
	}

	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanInvite(actor.Role) {
		return nil, errf(KindPermission, "only the owner or an admin can send invitations")
	}

	var invited *model.User
	if in.InvitedUserID != "" {
		invited, err = s.users.GetByID(in.InvitedUserID)
	} else {
		invited, err = s.users.GetByEmail(in.InvitedEmail)
	}
	if err != nil {
		return nil, err
	}
	if invited == nil {
		return nil, errf(KindNotFound, "invited user not found")
	}

	if invited.ID == actorID {
		return nil, errf(KindBusinessRule, "you cannot invite yourself")
	}
	if !IsValidProposedRole(in.Role) {
		return nil, errf(KindValidation, "role %q cannot be proposed in an invitation", in.Role)
	}

	now := s.now()
	expiresAt := now.Add(defaultInvitationTTL)
	if in.ExpiresAt != nil {
		expiresAt = in.ExpiresAt.UTC()
	}
	if !expiresAt.After(now) {
		return nil, errf(KindValidation, "expiry must be in the future")
	}

	member, err := s.members.Get(householdID, invited.ID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return nil, errf(KindConflict, "user is already a member of this household")
	}

	pending, err := s.invitations.ExistsPending(householdID, invited.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, errf(KindConflict, "user already has a pending invitation to this household")
	}

	inv, err := s.invitations.Insert(householdID, invited.ID, actorID, in.Role, expiresAt)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, errf(KindConflict, "user already has a pending invitation to this household")
		}
		return nil, classifyStore(err)
	}

	s.notifyCreated(*inv)
	return inv, nil
}

// AcceptInvitation turns a pending invitation into a membership. The
// status flip and the membership insert commit together; a concurrent
// second accept observes the non-pending status and fails.
func (s *Service) AcceptInvitation(invitationID, actorID string) (*model.Membership, error) {
	inv, err := s.invitations.GetByID(invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, errf(KindNotFound, "invitation not found")
	}
	if inv.InvitedUserID != actorID {
		return nil, errf(KindPermission, "this invitation is addressed to another user")
	}
	if inv.Status != model.InvitationPending {
		return nil, errf(KindResourceState, "invitation is %s and can no longer be accepted", inv.Status)
	}
	if inv.ExpiredAt(s.now()) {
		// The sweeper marks it expired; accept just refuses.
		return nil, errf(KindResourceState, "invitation has expired")
	}

	member, err := s.members.Get(inv.HouseholdID, actorID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return nil, errf(KindConflict, "you are already a member of this household")
	}

	m, changed, err := s.invitations.Accept(invitationID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, errf(KindConflict, "you are already a member of this household")
		}
		return nil, classifyStore(err)
	}
	if !changed {
		return nil, errf(KindResourceState, "invitation is no longer pending")
	}
	return m, nil
}

// DeclineInvitation marks a pending invitation declined. No membership
// is created.
func (s *Service) DeclineInvitation(invitationID, actorID string) error {
	inv, err := s.invitations.GetByID(invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return errf(KindNotFound, "invitation not found")
	}
	if inv.InvitedUserID != actorID {
		return errf(KindPermission, "this invitation is addressed to another user")
	}
	if inv.Status != model.InvitationPending {
		return errf(KindResourceState, "invitation is %s and can no longer be declined", inv.Status)
	}
	if inv.ExpiredAt(s.now()) {
		return errf(KindResourceState, "invitation has expired")
	}

	changed, err := s.invitations.UpdateStatus(invitationID, model.InvitationPending, model.InvitationDeclined)
	if err != nil {
		return classifyStore(err)
	}
	if !changed {
		return errf(KindResourceState, "invitation is no longer pending")
	}
	return nil
}

// managedInvitation loads an invitation scoped to a household on behalf
// of an actor allowed to manage it.
func (s *Service) managedInvitation(householdID, invitationID, actorID string) (*model.Invitation, error) {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanManageMembers(actor.Role) {
		return nil, errf(KindPermission, "only the owner or an admin can manage invitations")
	}

	inv, err := s.invitations.GetByID(invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.HouseholdID != householdID {
		return nil, errf(KindNotFound, "invitation not found")
	}
	return inv, nil
}

// CancelInvitation withdraws a pending invitation.
func (s *Service) CancelInvitation(householdID, invitationID, actorID string) error {
	inv, err := s.managedInvitation(householdID, invitationID, actorID)
	if err != nil {
		return err
	}
	if inv.Status != model.InvitationPending {
		return errf(KindResourceState, "invitation is %s and can no longer be cancelled", inv.Status)
	}

	changed, err := s.invitations.UpdateStatus(invitationID, model.InvitationPending, model.InvitationCancelled)
	if err != nil {
		return classifyStore(err)
	}
	if !changed {
		return errf(KindResourceState, "invitation is no longer pending")
	}
	return nil
}

// UpdateInvitation changes the proposed role and/or expiry of a pending
// invitation. Nil fields are left untouched.
func (s *Service) UpdateInvitation(householdID, invitationID, actorID string, newRole *model.Role, newExpiresAt *time.Time) (*model.Invitation, error) {
	inv, err := s.managedInvitation(householdID, invitationID, actorID)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, errf(KindResourceState, "invitation is %s and can no longer be updated", inv.Status)
	}
	if newRole == nil && newExpiresAt == nil {
		return nil, errf(KindValidation, "nothing to update")
	}
	if newRole != nil && !IsValidProposedRole(*newRole) {
		return nil, errf(KindValidation, "role %q cannot be proposed in an invitation", *newRole)
	}
	if newExpiresAt != nil && !newExpiresAt.After(s.now()) {
		return nil, errf(KindValidation, "expiry must be in the future")
	}

	changed, err := s.invitations.UpdateFields(invitationID, newRole, newExpiresAt)
	if err != nil {
		return nil, classifyStore(err)
	}
	if !changed {
		return nil, errf(KindResourceState, "invitation is no longer pending")
	}
	return s.invitations.GetByID(invitationID)
}

// ResendInvitation extends a pending invitation's expiry and sends a
// reminder notification.
func (s *Service) ResendInvitation(householdID, invitationID, actorID string, newExpiresAt *time.Time) (*model.Invitation, error) {
	inv, err := s.managedInvitation(householdID, invitationID, actorID)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, errf(KindResourceState, "invitation is %s and can no longer be resent", inv.Status)
	}

	expiresAt := s.now().Add(defaultInvitationTTL)
	if newExpiresAt != nil {
		if !newExpiresAt.After(s.now()) {
			return nil, errf(KindValidation, "expiry must be in the future")
		}
		expiresAt = newExpiresAt.UTC()
	}

	changed, err := s.invitations.UpdateFields(invitationID, nil, &expiresAt)
	if err != nil {
		return nil, classifyStore(err)
	}
	if !changed {
		return nil, errf(KindResourceState, "invitation is no longer pending")
	}

	inv, err = s.invitations.GetByID(invitationID)
	if err != nil {
		return nil, err
	}
	s.notifyReminder(*inv)
	return inv, nil
}

// ListInvitations returns a household's invitations for an actor allowed
// to manage them.
func (s *Service) ListInvitations(householdID, actorID string, status *model.InvitationStatus) ([]model.Invitation, error) {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanManageMembers(actor.Role) {
		return nil, errf(KindPermission, "only the owner or an admin can list invitations")
	}
	return s.invitations.ListByHousehold(householdID, status)
}

// ListMyInvitations returns invitations addressed to the actor.
func (s *Service) ListMyInvitations(actorID string, status *model.InvitationStatus) ([]model.Invitation, error) {
	return s.invitations.ListByInvitedUser(actorID, status)
}

// SweepExpired transitions overdue pending invitations to expired and
// returns how many changed. Safe to run concurrently with lifecycle
// operations: each transition is a conditional write from pending, so
// whichever side lands first wins and the other sees a non-pending
// invitation. Running it twice in a row changes nothing the second time.
func (s *Service) SweepExpired(now time.Time) (int, error) {
	overdue, err := s.invitations.ListPendingExpiredBefore(now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, inv := range overdue {
		changed, err := s.invitations.UpdateStatus(inv.ID, model.InvitationPending, model.InvitationExpired)
		if err != nil {
			// One stuck row must not block the rest of the batch.
			s.logger.Error("expire invitation", "invitation_id", inv.ID, "error", err)
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

// notifyCreated resolves display names and hands off to the notifier.
// Lookup failures are logged and dropped; notifications are best-effort.
func (s *Service) notifyCreated(inv model.Invitation) {
	h, err := s.households.GetByID(inv.HouseholdID)
	if err != nil || h == nil {
		s.logger.Error("notify invitation: household lookup", "error", err)
		return
	}
	inviter, err := s.users.GetByID(inv.InviterID)
	if err != nil || inviter == nil {
		s.logger.Error("notify invitation: inviter lookup", "error", err)
		return
	}
	s.notifier.InvitationCreated(inv, h.Name, inviter.Name)
}

func (s *Service) notifyReminder(inv model.Invitation) {
	h, err := s.households.GetByID(inv.HouseholdID)
	if err != nil || h == nil {
		s.logger.Error("notify reminder: household lookup", "error", err)
		return
	}
	s.notifier.InvitationReminder(inv, h.Name)
}
