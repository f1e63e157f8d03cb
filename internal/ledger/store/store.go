package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectEntryColumns = `timestamp_ns, person_id, icp_amount, icp_token_value, income_value, date_ns`

// scanEntry expects the column order of selectEntryColumns.
func scanEntry(s scanner) (*ledger.Entry, error) {
	var e ledger.Entry

	var dateNs int64

	if err := s.Scan(&e.Timestamp, &e.PersonID, &e.ICPAmount, &e.ICPTokenValue, &e.IncomeValue, &dateNs); err != nil {
		return nil, err
	}

	e.Date = time.Unix(0, dateNs).UTC()

	return &e, nil
}

func insertEntry(ctx context.Context, ex execer, e *ledger.Entry) error {
	query := `
		INSERT INTO entries (timestamp_ns, person_id, icp_amount, icp_token_value, income_value, date_ns)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := ex.ExecContext(ctx, query,
		e.Timestamp,
		e.PersonID,
		e.ICPAmount,
		e.ICPTokenValue,
		e.IncomeValue,
		e.Date.UnixNano(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("person %d: %w", e.PersonID, apperr.ErrNotFound)
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("entry %d: %w", e.Timestamp, ledger.ErrTimestampTaken)
			}
		}

		return fmt.Errorf("creating entry: %w", err)
	}

	return nil
}

func (s *Store) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	return insertEntry(ctx, s.db, e)
}

func (s *Store) CreateEntries(ctx context.Context, entries []*ledger.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entries: %w", err)
	}

	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, timestamp int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE timestamp_ns = $1`, timestamp)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("entry %d: %w", timestamp, apperr.ErrNotFound)
	}

	return nil
}

func (s *Store) ListEntries(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + selectEntryColumns + ` FROM entries` + where + ` ORDER BY timestamp_ns ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry rows: %w", err)
	}

	return entries, nil
}

func (s *Store) SumIncome(ctx context.Context, filter ledger.ListFilter) (decimal.Decimal, int, error) {
	where, args := whereClause(filter)
	query := `SELECT COALESCE(SUM(income_value), 0), COUNT(*) FROM entries` + where

	var total decimal.Decimal

	var count int

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total, &count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("summing income: %w", err)
	}

	return total, count, nil
}

func whereClause(filter ledger.ListFilter) (string, []any) {
	var (
		clause string
		args   []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)

		if clause == "" {
			clause = " WHERE "
		} else {
			clause += " AND "
		}

		clause += fmt.Sprintf(cond, len(args))
	}

	if filter.PersonID != nil {
		add("person_id = $%d", *filter.PersonID)
	}

	if filter.From != nil {
		add("date_ns >= $%d", filter.From.UnixNano())
	}

	if filter.To != nil {
		add("date_ns <= $%d", filter.To.UnixNano())
	}

	return clause, args
}
