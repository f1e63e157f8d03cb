package access

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=access
type Repository interface {
	// GetRole returns the stored role, or an empty Role when none was assigned.
	GetRole(ctx context.Context, p Principal) (Role, error)
	SetRole(ctx context.Context, p Principal, role Role) error

	// GetProfile returns nil when the principal has no profile.
	GetProfile(ctx context.Context, p Principal) (*UserProfile, error)
	SaveProfile(ctx context.Context, p Principal, profile UserProfile) error

	// GetState returns nil while no admin has been bootstrapped.
	GetState(ctx context.Context) (*State, error)
	// InitializeAdmin records p as the bootstrapped admin and grants it RoleAdmin in one atomic step.
	// It reports false without changing anything when the state was already initialized.
	InitializeAdmin(ctx context.Context, p Principal) (bool, error)
}

type Service struct {
	repo   Repository
	secret string
}

// NewService builds the access service. An empty adminSecret disables the token bootstrap.
func NewService(repo Repository, adminSecret string) *Service {
	return &Service{repo: repo, secret: adminSecret}
}

func (s *Service) CallerRole(ctx context.Context) (Role, error) {
	return s.role(ctx, CallerFrom(ctx))
}

func (s *Service) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := s.CallerRole(ctx)
	if err != nil {
		return false, err
	}

	return role == RoleAdmin, nil
}

func (s *Service) CallerProfile(ctx context.Context) (*UserProfile, error) {
	return s.Profile(ctx, CallerFrom(ctx))
}

func (s *Service) Profile(ctx context.Context, p Principal) (*UserProfile, error) {
	if p == Anonymous {
		return nil, nil
	}

	return s.repo.GetProfile(ctx, p)
}

// SaveCallerProfile stores the caller's profile and runs the admin bootstrap.
// A caller left without a role afterwards is registered as a plain user.
func (s *Service) SaveCallerProfile(ctx context.Context, profile UserProfile, tokens Tokens) error {
	caller := CallerFrom(ctx)
	if caller == Anonymous {
		return fmt.Errorf("%w: anonymous caller cannot save a profile", apperr.ErrUnauthorized)
	}

	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return fmt.Errorf("%w: profile name is required", apperr.ErrInvalidInput)
	}

	if err := s.repo.SaveProfile(ctx, caller, profile); err != nil {
		return err
	}

	role, err := s.repo.GetRole(ctx, caller)
	if err != nil {
		return err
	}

	if role == RoleAdmin {
		return nil
	}

	bootstrapped, err := s.bootstrap(ctx, caller, tokens)
	if err != nil {
		return err
	}

	if bootstrapped || role != "" {
		return nil
	}

	return s.repo.SetRole(ctx, caller, RoleUser)
}

// AssignRole sets the role of p. Only a caller whose stored role is admin may do this.
func (s *Service) AssignRole(ctx context.Context, p Principal, role Role) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	if p == Anonymous {
		return fmt.Errorf("%w: principal is required", apperr.ErrInvalidInput)
	}

	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidInput, role)
	}

	if err := s.repo.SetRole(ctx, p, role); err != nil {
		return err
	}

	slog.InfoContext(ctx, "role assigned", "principal", p, "role", role, "by", CallerFrom(ctx))

	return nil
}

// Authorize gates every mutating operation. It passes when the caller already holds the admin role,
// or when the tokens match the configured secret and no admin exists yet, in which case the caller
// becomes the admin.
func (s *Service) Authorize(ctx context.Context, tokens Tokens) error {
	caller := CallerFrom(ctx)
	if caller == Anonymous {
		return fmt.Errorf("%w: anonymous caller", apperr.ErrUnauthorized)
	}

	role, err := s.repo.GetRole(ctx, caller)
	if err != nil {
		return err
	}

	if role == RoleAdmin {
		return nil
	}

	bootstrapped, err := s.bootstrap(ctx, caller, tokens)
	if err != nil {
		return err
	}

	if bootstrapped {
		return nil
	}

	return fmt.Errorf("%w: admin role required", apperr.ErrUnauthorized)
}

// Initialized reports whether the admin bootstrap already happened.
func (s *Service) Initialized(ctx context.Context) (bool, error) {
	state, err := s.repo.GetState(ctx)
	if err != nil {
		return false, err
	}

	return state != nil, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	caller := CallerFrom(ctx)
	if caller == Anonymous {
		return fmt.Errorf("%w: anonymous caller", apperr.ErrUnauthorized)
	}

	role, err := s.repo.GetRole(ctx, caller)
	if err != nil {
		return err
	}

	if role != RoleAdmin {
		return fmt.Errorf("%w: admin role required", apperr.ErrUnauthorized)
	}

	return nil
}

func (s *Service) bootstrap(ctx context.Context, caller Principal, tokens Tokens) (bool, error) {
	if !s.tokensValid(tokens) {
		return false, nil
	}

	ok, err := s.repo.InitializeAdmin(ctx, caller)
	if err != nil {
		return false, fmt.Errorf("initializing admin: %w", err)
	}

	if ok {
		slog.InfoContext(ctx, "admin bootstrapped", "principal", caller)
	}

	return ok, nil
}

func (s *Service) tokensValid(t Tokens) bool {
	if s.secret == "" {
		return false
	}

	adminOK := subtle.ConstantTimeCompare([]byte(t.Admin), []byte(s.secret)) == 1
	userOK := subtle.ConstantTimeCompare([]byte(t.UserProvided), []byte(s.secret)) == 1

	return adminOK && userOK
}

func (s *Service) role(ctx context.Context, p Principal) (Role, error) {
	if p == Anonymous {
		return RoleGuest, nil
	}

	role, err := s.repo.GetRole(ctx, p)
	if err != nil {
		return "", err
	}

	if role == "" {
		return RoleGuest, nil
	}

	return role, nil
}
