package household

import (
	"errors"
	"strings"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// CreateHousehold creates a household with the creator as its owner.
func (s *Service) CreateHousehold(actorID, name string) (*model.Household, *model.Membership, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, errf(KindValidation, "household name is required")
	}

	creator, err := s.users.GetByID(actorID)
	if err != nil {
		return nil, nil, err
	}
	if creator == nil {
		return nil, nil, errf(KindNotFound, "user not found")
	}

	h, m, err := s.households.CreateWithOwner(name, actorID)
	if err != nil {
		return nil, nil, classifyStore(err)
	}
	return h, m, nil
}

// GetHousehold returns a household the actor belongs to.
func (s *Service) GetHousehold(householdID, actorID string) (*model.Household, error) {
	if _, err := s.actorMembership(householdID, actorID); err != nil {
		return nil, err
	}
	return s.households.GetByID(householdID)
}

// ListHouseholds returns the households the actor belongs to.
func (s *Service) ListHouseholds(actorID string) ([]model.Household, error) {
	return s.households.ListForUser(actorID)
}

// UpdateHousehold renames a household.
func (s *Service) UpdateHousehold(householdID, actorID, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errf(KindValidation, "household name is required")
	}

	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanModifyHousehold(actor.Role) {
		return nil, errf(KindPermission, "only the owner or an admin can modify the household")
	}

	h, err := s.households.Update(householdID, name)
	if err != nil {
		return nil, classifyStore(err)
	}
	return h, nil
}

// DeleteHousehold removes a household entirely. Memberships and
// invitations are deleted with it.
func (s *Service) DeleteHousehold(householdID, actorID string) error {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return err
	}
	if !CanDeleteHousehold(actor.Role) {
		return errf(KindPermission, "only the owner can delete the household")
	}

	return classifyStore(s.households.Delete(householdID))
}

// ListMembers returns a household's memberships. Any member may list.
func (s *Service) ListMembers(householdID, actorID string) ([]model.Membership, error) {
	if _, err := s.actorMembership(householdID, actorID); err != nil {
		return nil, err
	}
	return s.members.List(householdID)
}

// AddMember directly adds an existing user to a household.
func (s *Service) AddMember(householdID, actorID, targetUserID string, role model.Role) (*model.Membership, error) {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanManageMembers(actor.Role) {
		return nil, errf(KindPermission, "only the owner or an admin can add members")
	}
	if !IsValidProposedRole(role) {
		return nil, errf(KindValidation, "role %q cannot be assigned to a new member", role)
	}

	target, err := s.users.GetByID(targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errf(KindNotFound, "user not found")
	}

	existing, err := s.members.Get(householdID, targetUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errf(KindConflict, "user is already a member of this household")
	}

	m, err := s.members.Insert(householdID, targetUserID, role)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, errf(KindConflict, "user is already a member of this household")
		}
		return nil, classifyStore(err)
	}
	return m, nil
}

// RemoveMember removes a member from a household. The owner membership
// can never be removed through this path.
func (s *Service) RemoveMember(householdID, actorID, membershipID string) error {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return err
	}
	if !CanManageMembers(actor.Role) {
		return errf(KindPermission, "only the owner or an admin can remove members")
	}

	target, err := s.members.GetByID(membershipID)
	if err != nil {
		return err
	}
	if target == nil || target.HouseholdID != householdID {
		return errf(KindNotFound, "membership not found")
	}
	if target.Role == model.RoleOwner {
		return errf(KindResourceState, "the owner cannot be removed; transfer ownership first")
	}
	if !CanActOnTarget(actor.Role, target.Role) {
		return errf(KindPermission, "your role cannot act on a %s", target.Role)
	}

	return classifyStore(s.members.Delete(membershipID))
}

// ChangeRole changes a member's role between admin and member. Ownership
// is never granted or revoked here.
func (s *Service) ChangeRole(householdID, actorID, membershipID string, newRole model.Role) (*model.Membership, error) {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanManageMembers(actor.Role) {
		return nil, errf(KindPermission, "only the owner or an admin can change roles")
	}

	target, err := s.members.GetByID(membershipID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.HouseholdID != householdID {
		return nil, errf(KindNotFound, "membership not found")
	}
	if !IsValidProposedRole(newRole) {
		return nil, errf(KindValidation, "role cannot be changed to %q", newRole)
	}
	if target.Role == model.RoleOwner {
		return nil, errf(KindValidation, "the owner's role cannot be changed; transfer ownership instead")
	}
	if !CanActOnTarget(actor.Role, target.Role) {
		return nil, errf(KindPermission, "your role cannot act on a %s", target.Role)
	}

	m, err := s.members.UpdateRole(membershipID, newRole)
	if err != nil {
		return nil, classifyStore(err)
	}
	return m, nil
}

// Leave removes the actor's own membership. The owner must transfer
// ownership or delete the household instead.
func (s *Service) Leave(householdID, actorID string) error {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return err
	}
	if !CanLeave(actor.Role) {
		return errf(KindResourceState, "the owner cannot leave; transfer ownership or delete the household")
	}

	return classifyStore(s.members.Delete(actor.ID))
}

// TransferOwnership atomically demotes the current owner to admin and
// promotes an existing member to owner.
func (s *Service) TransferOwnership(householdID, actorID, newOwnerUserID string) error {
	actor, err := s.actorMembership(householdID, actorID)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleOwner {
		return errf(KindPermission, "only the owner can transfer ownership")
	}
	if newOwnerUserID == actorID {
		return errf(KindValidation, "you are already the owner")
	}

	target, err := s.members.Get(householdID, newOwnerUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return errf(KindNotFound, "the new owner must already be a member")
	}

	if err := s.members.TransferOwnership(householdID, actorID, newOwnerUserID); err != nil {
		if errors.Is(err, store.ErrTransferConflict) {
			return errf(KindConflict, "ownership changed concurrently; try again")
		}
		return classifyStore(err)
	}
	return nil
}
