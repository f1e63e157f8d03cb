package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	// CreateEntry returns apperr.ErrNotFound when e.PersonID does not exist.
	CreateEntry(ctx context.Context, e *Entry) error
	// CreateEntries writes all entries or none.
	CreateEntries(ctx context.Context, entries []*Entry) error
	// DeleteEntry returns apperr.ErrNotFound when no entry has the timestamp.
	DeleteEntry(ctx context.Context, timestamp int64) error
	// ListEntries returns matching entries ordered by timestamp.
	ListEntries(ctx context.Context, filter ListFilter) ([]*Entry, error)
	// SumIncome returns the sum of IncomeValue and the number of matching entries.
	SumIncome(ctx context.Context, filter ListFilter) (decimal.Decimal, int, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, tokens access.Tokens) error
}

// maxStampAttempts bounds how often a write is retried with a fresh timestamp
// after another process stored an entry with the same one.
const maxStampAttempts = 5

type Service struct {
	repo  Repository
	auth  Authorizer
	now   func() time.Time
	stamp *stamper
}

type Option func(*Service)

// WithClock replaces the wall clock used for creation timestamps and the rolling window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, auth Authorizer, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		auth:  auth,
		now:   time.Now,
		stamp: &stamper{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Authorize runs the gate every ledger mutation passes, for callers that must
// check it before doing expensive work such as parsing an upload.
func (s *Service) Authorize(ctx context.Context, tokens access.Tokens) error {
	return s.auth.Authorize(ctx, tokens)
}

func (s *Service) Create(ctx context.Context, params CreateParams, tokens access.Tokens) (*Entry, error) {
	if err := s.auth.Authorize(ctx, tokens); err != nil {
		return nil, err
	}

	e, err := s.newEntry(params)
	if err != nil {
		return nil, err
	}

	err = s.withFreshStamps(func() error {
		return s.repo.CreateEntry(ctx, e)
	}, e)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "entry created",
		"person_id", e.PersonID,
		"timestamp", e.Timestamp,
		"income_value", e.IncomeValue.String())

	return e, nil
}

func (s *Service) Delete(ctx context.Context, timestamp int64, tokens access.Tokens) error {
	if err := s.auth.Authorize(ctx, tokens); err != nil {
		return err
	}

	if err := s.repo.DeleteEntry(ctx, timestamp); err != nil {
		return err
	}

	slog.InfoContext(ctx, "entry deleted", "timestamp", timestamp)

	return nil
}

func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	return s.repo.ListEntries(ctx, ListFilter{})
}

// ListByPerson returns an empty slice for a person without entries or an unknown person.
func (s *Service) ListByPerson(ctx context.Context, personID int64) ([]*Entry, error) {
	entries, err := s.repo.ListEntries(ctx, ListFilter{PersonID: &personID})
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*Entry{}
	}

	return entries, nil
}

func (s *Service) TotalIncome(ctx context.Context) (decimal.Decimal, error) {
	total, _, err := s.repo.SumIncome(ctx, ListFilter{})
	return total, err
}

func (s *Service) TotalIncomeByPerson(ctx context.Context, personID int64) (decimal.Decimal, error) {
	total, _, err := s.repo.SumIncome(ctx, ListFilter{PersonID: &personID})
	return total, err
}

// Rolling30DayIncome sums the person's entries whose Date lies in [now-30d, now], both ends included.
// now is read on every call.
func (s *Service) Rolling30DayIncome(ctx context.Context, personID int64) (decimal.Decimal, error) {
	to := s.now()
	from := to.Add(-RollingWindow)

	total, _, err := s.repo.SumIncome(ctx, ListFilter{PersonID: &personID, From: &from, To: &to})

	return total, err
}

// Summary returns total, count and average income, for one person when personID is set.
func (s *Service) Summary(ctx context.Context, personID *int64) (Summary, error) {
	total, count, err := s.repo.SumIncome(ctx, ListFilter{PersonID: personID})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: total, Count: count, Average: decimal.Zero}
	if count > 0 {
		sum.Average = total.Div(decimal.NewFromInt(int64(count)))
	}

	return sum, nil
}

// ImportBatch creates entries for one person unless some rows duplicate existing entries.
// On conflict nothing is written and the result lists the new rows and the conflicts.
func (s *Service) ImportBatch(ctx context.Context, personID int64, params []CreateParams, tokens access.Tokens) (*ImportResult, error) {
	if err := s.auth.Authorize(ctx, tokens); err != nil {
		return nil, err
	}

	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	params, err := forPerson(personID, params)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListEntries(ctx, ListFilter{PersonID: &personID})
	if err != nil {
		return nil, fmt.Errorf("listing existing entries: %w", err)
	}

	type dupKey struct {
		Date          int64
		ICPAmount     string
		ICPTokenValue string
	}

	keyOf := func(date time.Time, amount, value decimal.Decimal) dupKey {
		return dupKey{
			Date:          date.UnixNano(),
			ICPAmount:     amount.String(),
			ICPTokenValue: value.String(),
		}
	}

	lookup := make(map[dupKey]*Entry, len(existing))
	for _, e := range existing {
		lookup[keyOf(e.Date, e.ICPAmount, e.ICPTokenValue)] = e
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		if found, ok := lookup[keyOf(p.Date, p.ICPAmount, p.ICPTokenValue)]; ok {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: found})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	entries, err := s.createBatch(ctx, newParams)
	if err != nil {
		return nil, err
	}

	return &ImportResult{Imported: entries}, nil
}

// CreateBatch creates every row for the person regardless of duplicates.
func (s *Service) CreateBatch(ctx context.Context, personID int64, params []CreateParams, tokens access.Tokens) ([]*Entry, error) {
	if err := s.auth.Authorize(ctx, tokens); err != nil {
		return nil, err
	}

	if len(params) == 0 {
		return nil, nil
	}

	params, err := forPerson(personID, params)
	if err != nil {
		return nil, err
	}

	return s.createBatch(ctx, params)
}

func (s *Service) createBatch(ctx context.Context, params []CreateParams) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(params))

	for i, p := range params {
		e, err := s.newEntry(p)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		entries = append(entries, e)
	}

	err := s.withFreshStamps(func() error {
		return s.repo.CreateEntries(ctx, entries)
	}, entries...)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "entries created", "count", len(entries))

	return entries, nil
}

// withFreshStamps runs write and, while the repository reports a taken timestamp,
// assigns new timestamps to entries and runs it again.
func (s *Service) withFreshStamps(write func() error, entries ...*Entry) error {
	var err error

	for attempt := 1; attempt <= maxStampAttempts; attempt++ {
		if err = write(); !errors.Is(err, ErrTimestampTaken) {
			return err
		}

		for _, e := range entries {
			e.Timestamp = s.stamp.next(s.now())
		}
	}

	return fmt.Errorf("assigning entry timestamp: %w", err)
}

// forPerson returns a validated copy of params bound to personID.
func forPerson(personID int64, params []CreateParams) ([]CreateParams, error) {
	out := make([]CreateParams, len(params))

	for i, p := range params {
		p.PersonID = personID
		if err := validateParams(p); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		out[i] = p
	}

	return out, nil
}

func validateParams(p CreateParams) error {
	if !p.ICPAmount.IsPositive() {
		return fmt.Errorf("%w: icp amount must be greater than zero", apperr.ErrInvalidInput)
	}

	if !p.ICPTokenValue.IsPositive() {
		return fmt.Errorf("%w: icp token value must be greater than zero", apperr.ErrInvalidInput)
	}

	if p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperr.ErrInvalidInput)
	}

	return CheckDate(p.Date)
}

func (s *Service) newEntry(p CreateParams) (*Entry, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	return &Entry{
		PersonID:      p.PersonID,
		ICPAmount:     p.ICPAmount,
		ICPTokenValue: p.ICPTokenValue,
		IncomeValue:   p.ICPAmount.Mul(p.ICPTokenValue),
		Date:          p.Date,
		Timestamp:     s.stamp.next(s.now()),
	}, nil
}
