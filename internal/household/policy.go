package household

import "github.com/dukerupert/hearth/internal/model"

// Role policy: every authorization decision in this package routes
// through one of these functions. They are pure and take no state.

// CanModifyHousehold reports whether a role may rename or otherwise edit
// the household itself.
func CanModifyHousehold(role model.Role) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}

// CanDeleteHousehold reports whether a role may delete the household.
func CanDeleteHousehold(role model.Role) bool {
	return role == model.RoleOwner
}

// CanManageMembers reports whether a role may add members and manage
// invitations.
func CanManageMembers(role model.Role) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}

// CanActOnTarget reports whether an actor may remove or change the role
// of a specific member. Owners act on admins and members; admins act
// only on members. An owner is never a valid target through this path,
// ownership changes go through transfer.
func CanActOnTarget(actor, target model.Role) bool {
	if target == model.RoleOwner {
		return false
	}
	switch actor {
	case model.RoleOwner:
		return true
	case model.RoleAdmin:
		return target == model.RoleMember
	}
	return false
}

// CanLeave reports whether a role may leave the household voluntarily.
// The owner must transfer ownership or delete the household instead.
func CanLeave(role model.Role) bool {
	return role == model.RoleAdmin || role == model.RoleMember
}

// CanInvite reports whether a role may send invitations.
func CanInvite(role model.Role) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}

// IsValidProposedRole reports whether a role may be proposed for a new
// member. Ownership is never granted by invitation or direct add.
func IsValidProposedRole(role model.Role) bool {
	return role.Valid() && role != model.RoleOwner
}
