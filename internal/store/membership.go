package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

// ErrTransferConflict is returned when an ownership transfer loses a race:
// the expected current owner or target member no longer matches.
var ErrTransferConflict = fmt.Errorf("ownership transfer conflict")

type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

func scanMembership(scanner interface{ Scan(...any) error }) (*model.Membership, error) {
	var m model.Membership
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const membershipCols = `id, household_id, user_id, role, created_at, updated_at`

func (s *MembershipStore) Get(householdID, userID string) (*model.Membership, error) {
	row := s.db.QueryRow(
		`SELECT `+membershipCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *MembershipStore) GetByID(id string) (*model.Membership, error) {
	row := s.db.QueryRow(`SELECT `+membershipCols+` FROM household_members WHERE id = ?`, id)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership by id: %w", err)
	}
	return m, nil
}

func (s *MembershipStore) List(householdID string) ([]model.Membership, error) {
	rows, err := s.db.Query(
		`SELECT `+membershipCols+` FROM household_members WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// Insert creates a membership. A UNIQUE violation on (household, user)
// surfaces as an error satisfying IsUniqueViolation.
func (s *MembershipStore) Insert(householdID, userID string, role model.Role) (*model.Membership, error) {
	id := uuid.NewString()
	err := withBusyRetry(func() error {
		_, err := s.db.Exec(
			`INSERT INTO household_members (id, household_id, user_id, role) VALUES (?, ?, ?, ?)`,
			id, householdID, userID, role,
		)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	return s.GetByID(id)
}

func (s *MembershipStore) UpdateRole(id string, role model.Role) (*model.Membership, error) {
	_, err := s.db.Exec(
		`UPDATE household_members SET role = ?, updated_at = datetime('now') WHERE id = ?`,
		role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update membership role: %w", err)
	}
	return s.GetByID(id)
}

func (s *MembershipStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM household_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// TransferOwnership demotes the current owner to admin and promotes the
// target member to owner in a single transaction. Each update must match
// exactly one row; otherwise the state changed underneath the caller and
// the transaction rolls back with ErrTransferConflict, leaving the
// single-owner invariant intact.
func (s *MembershipStore) TransferOwnership(householdID, fromUserID, toUserID string) error {
	return withBusyRetry(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		res, err := tx.Exec(
			`UPDATE household_members SET role = ?, updated_at = datetime('now')
			 WHERE household_id = ? AND user_id = ? AND role = ?`,
			model.RoleAdmin, householdID, fromUserID, model.RoleOwner,
		)
		if err != nil {
			return fmt.Errorf("demote owner: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("demote rows affected: %w", err)
		} else if n != 1 {
			return ErrTransferConflict
		}

		res, err = tx.Exec(
			`UPDATE household_members SET role = ?, updated_at = datetime('now')
			 WHERE household_id = ? AND user_id = ? AND role != ?`,
			model.RoleOwner, householdID, toUserID, model.RoleOwner,
		)
		if err != nil {
			return fmt.Errorf("promote member: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("promote rows affected: %w", err)
		} else if n != 1 {
			return ErrTransferConflict
		}

		return tx.Commit()
	})
}
