package model

import "time"

// InvitationStatus is the lifecycle state of an invitation. Pending is
// the only state with outgoing transitions; the other four are terminal.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCancelled InvitationStatus = "cancelled"
	InvitationExpired   InvitationStatus = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined, InvitationCancelled, InvitationExpired:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s InvitationStatus) Terminal() bool {
	return s.Valid() && s != InvitationPending
}

// Invitation proposes that a user join a household with a given role.
// Invitations are never deleted; terminal ones are kept as history.
type Invitation struct {
	ID            string           `json:"id"`
	HouseholdID   string           `json:"household_id"`
	InvitedUserID string           `json:"invited_user_id"`
	InviterID     string           `json:"inviter_id"`
	Role          Role             `json:"role"`
	Status        InvitationStatus `json:"status"`
	ExpiresAt     time.Time        `json:"expires_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ExpiredAt reports whether the invitation's deadline has passed at t.
func (i *Invitation) ExpiredAt(t time.Time) bool {
	return t.After(i.ExpiresAt)
}
