package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, created_at, updated_at`

// CreateWithOwner inserts a household and its owner membership in one
// transaction, so a household is never observable without an owner.
func (s *HouseholdStore) CreateWithOwner(name, ownerUserID string) (*model.Household, *model.Membership, error) {
	householdID := uuid.NewString()
	membershipID := uuid.NewString()

	err := withBusyRetry(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(
			`INSERT INTO households (id, name) VALUES (?, ?)`,
			householdID, name,
		); err != nil {
			return fmt.Errorf("insert household: %w", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO household_members (id, household_id, user_id, role) VALUES (?, ?, ?, ?)`,
			membershipID, householdID, ownerUserID, model.RoleOwner,
		); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, nil, err
	}

	h, err := s.GetByID(householdID)
	if err != nil {
		return nil, nil, err
	}
	row := s.db.QueryRow(`SELECT `+membershipCols+` FROM household_members WHERE id = ?`, membershipID)
	m, err := scanMembership(row)
	if err != nil {
		return nil, nil, fmt.Errorf("get owner membership: %w", err)
	}
	return h, m, nil
}

func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Exists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM households WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("household exists: %w", err)
	}
	return true, nil
}

func (s *HouseholdStore) Update(id, name string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_at = datetime('now') WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a household. Memberships and invitations cascade.
func (s *HouseholdStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) ListForUser(userID string) ([]model.Household, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}
