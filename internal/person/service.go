package person

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=person
type Repository interface {
	CreatePerson(ctx context.Context, p *Person) error
	// GetPerson returns apperr.ErrNotFound when no person has the id.
	GetPerson(ctx context.Context, id int64) (*Person, error)
	ListPersons(ctx context.Context) ([]*Person, error)
	// DeletePerson removes the person and every entry referencing it in one atomic step.
	DeletePerson(ctx context.Context, id int64) error
}

type Authorizer interface {
	Authorize(ctx context.Context, tokens access.Tokens) error
}

type Service struct {
	repo Repository
	auth Authorizer
}

func NewService(repo Repository, auth Authorizer) *Service {
	return &Service{repo: repo, auth: auth}
}

func (s *Service) Create(ctx context.Context, name string, tokens access.Tokens) (*Person, error) {
	if err := s.auth.Authorize(ctx, tokens); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}

	p := &Person{Name: name}
	if err := s.repo.CreatePerson(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "person created", "person_id", p.ID, "name", p.Name)

	return p, nil
}

// Get returns nil when the person does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*Person, error) {
	p, err := s.repo.GetPerson(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Person, error) {
	return s.repo.ListPersons(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64, tokens access.Tokens) error {
	if err := s.auth.Authorize(ctx, tokens); err != nil {
		return err
	}

	if err := s.repo.DeletePerson(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "person deleted", "person_id", id)

	return nil
}
