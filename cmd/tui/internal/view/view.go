package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
)

const dbTimeout = 5 * time.Second

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Session *Session
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// Session is the identity every service call is made as. Tokens are only set
// after the operator typed the bootstrap token on the profile screen.
type Session struct {
	Principal  access.Principal
	AdminToken string
	Tokens     access.Tokens
}

// Ctx returns a context carrying the session principal and a standard timeout.
func (s *Session) Ctx() (context.Context, context.CancelFunc) {
	return s.CtxWithTimeout(dbTimeout)
}

func (s *Session) CtxWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	ctx := access.WithCaller(context.Background(), s.Principal)
	return context.WithTimeout(ctx, d)
}
