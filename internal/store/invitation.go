package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	err := scanner.Scan(
		&inv.ID, &inv.HouseholdID, &inv.InvitedUserID, &inv.InviterID,
		&inv.Role, &inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const invitationCols = `id, household_id, invited_user_id, inviter_id, role, status, expires_at, created_at, updated_at`

// Insert creates a pending invitation. A violation of the partial unique
// index (one pending invitation per household+user) surfaces as an error
// satisfying IsUniqueViolation.
func (s *InvitationStore) Insert(householdID, invitedUserID, inviterID string, role model.Role, expiresAt time.Time) (*model.Invitation, error) {
	id := uuid.NewString()
	err := withBusyRetry(func() error {
		_, err := s.db.Exec(
			`INSERT INTO invitations (id, household_id, invited_user_id, inviter_id, role, status, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, householdID, invitedUserID, inviterID, role, model.InvitationPending, expiresAt.UTC(),
		)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return s.GetByID(id)
}

func (s *InvitationStore) GetByID(id string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) listWhere(where string, args ...any) ([]model.Invitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM invitations WHERE `+where+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

// ListByHousehold returns a household's invitations, optionally filtered
// by status.
func (s *InvitationStore) ListByHousehold(householdID string, status *model.InvitationStatus) ([]model.Invitation, error) {
	if status != nil {
		return s.listWhere(`household_id = ? AND status = ?`, householdID, *status)
	}
	return s.listWhere(`household_id = ?`, householdID)
}

// ListByInvitedUser returns invitations addressed to a user, optionally
// filtered by status.
func (s *InvitationStore) ListByInvitedUser(userID string, status *model.InvitationStatus) ([]model.Invitation, error) {
	if status != nil {
		return s.listWhere(`invited_user_id = ? AND status = ?`, userID, *status)
	}
	return s.listWhere(`invited_user_id = ?`, userID)
}

func (s *InvitationStore) ExistsPending(householdID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM invitations WHERE household_id = ? AND invited_user_id = ? AND status = ?`,
		householdID, userID, model.InvitationPending,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists pending invitation: %w", err)
	}
	return true, nil
}

// UpdateStatus transitions an invitation from one status to another. The
// conditional write is the serialization point for concurrent lifecycle
// operations: it reports false when the invitation was no longer in the
// from status, and makes no change in that case.
func (s *InvitationStore) UpdateStatus(id string, from, to model.InvitationStatus) (bool, error) {
	var changed bool
	err := withBusyRetry(func() error {
		res, err := s.db.Exec(
			`UPDATE invitations SET status = ?, updated_at = datetime('now') WHERE id = ? AND status = ?`,
			to, id, from,
		)
		if err != nil {
			return fmt.Errorf("update invitation status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		changed = n == 1
		return nil
	})
	return changed, err
}

// UpdateFields mutates the role and/or expiry of a pending invitation.
// Nil fields are left unchanged. Reports false without mutating anything
// if the invitation is no longer pending.
func (s *InvitationStore) UpdateFields(id string, role *model.Role, expiresAt *time.Time) (bool, error) {
	set := `updated_at = datetime('now')`
	args := []any{}
	if role != nil {
		set += `, role = ?`
		args = append(args, *role)
	}
	if expiresAt != nil {
		set += `, expires_at = ?`
		args = append(args, expiresAt.UTC())
	}
	args = append(args, id, model.InvitationPending)

	var changed bool
	err := withBusyRetry(func() error {
		res, err := s.db.Exec(
			`UPDATE invitations SET `+set+` WHERE id = ? AND status = ?`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("update invitation fields: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		changed = n == 1
		return nil
	})
	return changed, err
}

// Accept flips a pending invitation to accepted and creates the
// resulting membership in one transaction. The conditional status flip
// guarantees at most one membership is ever created from an invitation:
// a second caller finds the invitation non-pending and gets changed =
// false. A UNIQUE violation on the membership insert (user already a
// member) rolls the flip back and surfaces as an error satisfying
// IsUniqueViolation.
func (s *InvitationStore) Accept(id string) (*model.Membership, bool, error) {
	membershipID := uuid.NewString()
	var changed bool

	err := withBusyRetry(func() error {
		changed = false

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		inv, err := scanInvitation(tx.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get invitation: %w", err)
		}

		res, err := tx.Exec(
			`UPDATE invitations SET status = ?, updated_at = datetime('now') WHERE id = ? AND status = ?`,
			model.InvitationAccepted, id, model.InvitationPending,
		)
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n != 1 {
			return nil
		}

		if _, err := tx.Exec(
			`INSERT INTO household_members (id, household_id, user_id, role) VALUES (?, ?, ?, ?)`,
			membershipID, inv.HouseholdID, inv.InvitedUserID, inv.Role,
		); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return nil, false, nil
	}

	row := s.db.QueryRow(`SELECT `+membershipCols+` FROM household_members WHERE id = ?`, membershipID)
	m, err := scanMembership(row)
	if err != nil {
		return nil, true, fmt.Errorf("get accepted membership: %w", err)
	}
	return m, true, nil
}

// ListPendingExpiredBefore returns pending invitations whose expiry has
// passed at the given time.
func (s *InvitationStore) ListPendingExpiredBefore(now time.Time) ([]model.Invitation, error) {
	return s.listWhere(`status = ? AND expires_at < ?`, model.InvitationPending, now.UTC())
}
