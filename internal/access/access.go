package access

import (
	"context"
	"time"
)

// Role is the authorization level of a caller identity.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}

	return false
}

// Principal identifies an authenticated caller. The zero value is the anonymous caller.
type Principal string

const Anonymous Principal = ""

// UserProfile is the self-declared profile of a caller identity.
type UserProfile struct {
	Name string
}

// Tokens are the two secrets every mutating call carries for the admin bootstrap.
type Tokens struct {
	Admin        string
	UserProvided string
}

// State is the persisted bootstrap record. It is written exactly once.
type State struct {
	AdminPrincipal Principal
	InitializedAt  time.Time
}

type callerKey struct{}

// WithCaller returns a context carrying the caller principal.
func WithCaller(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, p)
}

// CallerFrom returns the caller principal stored in ctx, or Anonymous.
func CallerFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(callerKey{}).(Principal)
	return p
}
