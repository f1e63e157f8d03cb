package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreatePerson(ctx context.Context, p *person.Person) error {
	query := `
		INSERT INTO persons (name, created_at)
		VALUES ($1, NOW())
		RETURNING id, created_at
	`

	if err := s.db.QueryRowContext(ctx, query, p.Name).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("creating person: %w", err)
	}

	return nil
}

func (s *Store) GetPerson(ctx context.Context, id int64) (*person.Person, error) {
	query := `SELECT id, name, created_at FROM persons WHERE id = $1`

	var p person.Person

	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("person %d: %w", id, apperr.ErrNotFound)
		}

		return nil, fmt.Errorf("getting person: %w", err)
	}

	return &p, nil
}

func (s *Store) ListPersons(ctx context.Context) ([]*person.Person, error) {
	query := `SELECT id, name, created_at FROM persons ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	defer rows.Close()

	var persons []*person.Person

	for rows.Next() {
		var p person.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}

		persons = append(persons, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating person rows: %w", err)
	}

	return persons, nil
}

// DeletePerson relies on entries.person_id ON DELETE CASCADE, so the person and
// its entries disappear in the same statement.
func (s *Store) DeletePerson(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting person: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting person: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("person %d: %w", id, apperr.ErrNotFound)
	}

	return nil
}
