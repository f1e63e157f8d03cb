package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetRole(ctx context.Context, p access.Principal) (access.Role, error) {
	var role string

	err := s.db.QueryRowContext(ctx, `SELECT role FROM user_roles WHERE principal = $1`, string(p)).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("getting role: %w", err)
	}

	return access.Role(role), nil
}

func (s *Store) SetRole(ctx context.Context, p access.Principal, role access.Role) error {
	query := `
		INSERT INTO user_roles (principal, role, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (principal) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, string(p), string(role)); err != nil {
		return fmt.Errorf("setting role: %w", err)
	}

	return nil
}

func (s *Store) GetProfile(ctx context.Context, p access.Principal) (*access.UserProfile, error) {
	var profile access.UserProfile

	err := s.db.QueryRowContext(ctx, `SELECT name FROM user_profiles WHERE principal = $1`, string(p)).Scan(&profile.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting profile: %w", err)
	}

	return &profile, nil
}

func (s *Store) SaveProfile(ctx context.Context, p access.Principal, profile access.UserProfile) error {
	query := `
		INSERT INTO user_profiles (principal, name, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (principal) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, string(p), profile.Name); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	return nil
}

func (s *Store) GetState(ctx context.Context) (*access.State, error) {
	var (
		state     access.State
		principal string
	)

	err := s.db.QueryRowContext(ctx, `SELECT admin_principal, initialized_at FROM access_state WHERE id = 1`).
		Scan(&principal, &state.InitializedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting access state: %w", err)
	}

	state.AdminPrincipal = access.Principal(principal)

	return &state, nil
}

// InitializeAdmin claims the singleton access_state row. Concurrent callers race on
// the primary key, so only one of them sees a row inserted.
func (s *Store) InitializeAdmin(ctx context.Context, p access.Principal) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO access_state (id, admin_principal, initialized_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO NOTHING
	`, string(p))
	if err != nil {
		return false, fmt.Errorf("initializing access state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("initializing access state: %w", err)
	}

	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_roles (principal, role, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (principal) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
	`, string(p), string(access.RoleAdmin))
	if err != nil {
		return false, fmt.Errorf("granting bootstrap admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing bootstrap: %w", err)
	}

	return true, nil
}
