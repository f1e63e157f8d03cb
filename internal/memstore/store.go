// Package memstore keeps persons, entries, roles and profiles in process memory.
// A single RWMutex serializes writers, so a cascade delete is never half-visible to readers.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextPersonID int64
	persons      map[int64]*person.Person
	personOrder  []int64

	entries  map[int64]*ledger.Entry // by timestamp
	byPerson map[int64][]int64       // person id -> timestamps, ascending

	roles    map[access.Principal]access.Role
	profiles map[access.Principal]access.UserProfile
	state    *access.State
}

func New() *Store {
	return &Store{
		now:      time.Now,
		persons:  make(map[int64]*person.Person),
		entries:  make(map[int64]*ledger.Entry),
		byPerson: make(map[int64][]int64),
		roles:    make(map[access.Principal]access.Role),
		profiles: make(map[access.Principal]access.UserProfile),
	}
}

func (s *Store) CreatePerson(_ context.Context, p *person.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPersonID++
	p.ID = s.nextPersonID
	p.CreatedAt = s.now()

	stored := *p
	s.persons[p.ID] = &stored
	s.personOrder = append(s.personOrder, p.ID)

	return nil
}

func (s *Store) GetPerson(_ context.Context, id int64) (*person.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, apperr.ErrNotFound)
	}

	out := *p

	return &out, nil
}

func (s *Store) ListPersons(_ context.Context) ([]*person.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*person.Person, 0, len(s.personOrder))
	for _, id := range s.personOrder {
		p := *s.persons[id]
		out = append(out, &p)
	}

	return out, nil
}

func (s *Store) DeletePerson(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return fmt.Errorf("person %d: %w", id, apperr.ErrNotFound)
	}

	for _, ts := range s.byPerson[id] {
		delete(s.entries, ts)
	}

	delete(s.byPerson, id)
	delete(s.persons, id)
	s.personOrder = slices.DeleteFunc(s.personOrder, func(v int64) bool { return v == id })

	return nil
}

func (s *Store) CreateEntry(_ context.Context, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEntry(e); err != nil {
		return err
	}

	s.insertEntry(e)

	return nil
}

func (s *Store) CreateEntries(_ context.Context, entries []*ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]struct{}, len(entries))

	for _, e := range entries {
		if err := s.checkEntry(e); err != nil {
			return err
		}

		if _, dup := seen[e.Timestamp]; dup {
			return fmt.Errorf("entry %d: %w", e.Timestamp, ledger.ErrTimestampTaken)
		}

		seen[e.Timestamp] = struct{}{}
	}

	for _, e := range entries {
		s.insertEntry(e)
	}

	return nil
}

func (s *Store) DeleteEntry(_ context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[timestamp]
	if !ok {
		return fmt.Errorf("entry %d: %w", timestamp, apperr.ErrNotFound)
	}

	delete(s.entries, timestamp)

	s.byPerson[e.PersonID] = slices.DeleteFunc(s.byPerson[e.PersonID], func(v int64) bool { return v == timestamp })
	if len(s.byPerson[e.PersonID]) == 0 {
		delete(s.byPerson, e.PersonID)
	}

	return nil
}

func (s *Store) ListEntries(_ context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Entry

	s.each(filter, func(e *ledger.Entry) {
		c := *e
		out = append(out, &c)
	})

	return out, nil
}

func (s *Store) SumIncome(_ context.Context, filter ledger.ListFilter) (decimal.Decimal, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	count := 0

	s.each(filter, func(e *ledger.Entry) {
		total = total.Add(e.IncomeValue)
		count++
	})

	return total, count, nil
}

func (s *Store) GetRole(_ context.Context, p access.Principal) (access.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.roles[p], nil
}

func (s *Store) SetRole(_ context.Context, p access.Principal, role access.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles[p] = role

	return nil
}

func (s *Store) GetProfile(_ context.Context, p access.Principal) (*access.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[p]
	if !ok {
		return nil, nil
	}

	return &profile, nil
}

func (s *Store) SaveProfile(_ context.Context, p access.Principal, profile access.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p] = profile

	return nil
}

func (s *Store) GetState(_ context.Context) (*access.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, nil
	}

	st := *s.state

	return &st, nil
}

func (s *Store) InitializeAdmin(_ context.Context, p access.Principal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		return false, nil
	}

	s.state = &access.State{AdminPrincipal: p, InitializedAt: s.now()}
	s.roles[p] = access.RoleAdmin

	return true, nil
}

// checkEntry must be called with the write lock held.
func (s *Store) checkEntry(e *ledger.Entry) error {
	if _, ok := s.persons[e.PersonID]; !ok {
		return fmt.Errorf("person %d: %w", e.PersonID, apperr.ErrNotFound)
	}

	if _, dup := s.entries[e.Timestamp]; dup {
		return fmt.Errorf("entry %d: %w", e.Timestamp, ledger.ErrTimestampTaken)
	}

	return nil
}

// insertEntry must be called with the write lock held.
func (s *Store) insertEntry(e *ledger.Entry) {
	stored := *e
	s.entries[e.Timestamp] = &stored

	ids := s.byPerson[e.PersonID]
	i, _ := slices.BinarySearch(ids, e.Timestamp)
	s.byPerson[e.PersonID] = slices.Insert(ids, i, e.Timestamp)
}

// each visits matching entries in timestamp order. The read lock must be held.
func (s *Store) each(filter ledger.ListFilter, fn func(e *ledger.Entry)) {
	var timestamps []int64

	if filter.PersonID != nil {
		timestamps = s.byPerson[*filter.PersonID]
	} else {
		timestamps = make([]int64, 0, len(s.entries))
		for ts := range s.entries {
			timestamps = append(timestamps, ts)
		}

		slices.Sort(timestamps)
	}

	for _, ts := range timestamps {
		e := s.entries[ts]

		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}

		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}

		fn(e)
	}
}
