package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
)

type profileForm struct {
	Name  string
	Token string
}

// ProfileModel shows the session identity and lets the operator save a profile.
// Typing the bootstrap token here claims the admin role while no admin exists.
type ProfileModel struct {
	CommonModel
	access *access.Service

	form        *huh.Form
	fields      *profileForm
	role        access.Role
	initialized bool
	loading     bool
	err         error
	status      string
}

func NewProfileModel(session *Session, svc *access.Service) ProfileModel {
	return ProfileModel{
		CommonModel: CommonModel{Session: session},
		access:      svc,
		fields:      &profileForm{},
		loading:     true,
	}
}

func (m ProfileModel) Title() string { return "Profile" }

func (m ProfileModel) ShortHelp() string {
	return "Esc: back | Enter: save"
}

func (m ProfileModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.role = msg.role
		m.initialized = msg.initialized

		if msg.profile != nil {
			m.fields.Name = msg.profile.Name
		}

		m.form = m.buildForm()

		return m, m.form.Init()

	case profileSavedMsg:
		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		} else {
			m.Session.Tokens = msg.tokens
			m.status = successStyle("Profile saved.")
		}

		m.fields.Token = ""

		return m, m.loadCmd()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.form = nil
	tokens := access.Tokens{Admin: m.Session.AdminToken, UserProvided: m.fields.Token}

	return m, m.saveCmd(access.UserProfile{Name: m.fields.Name}, tokens)
}

func (m ProfileModel) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Key("name").
			Title("Name").
			Value(&m.fields.Name),
	}

	if !m.initialized && m.role != access.RoleAdmin {
		fields = append(fields, huh.NewInput().
			Key("token").
			Title("Bootstrap Token").
			Description("Leave empty unless you are setting up the first admin").
			EchoMode(huh.EchoModePassword).
			Value(&m.fields.Token))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
}

func (m ProfileModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading profile...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("Principal: %s | Role: %s", activeStyle(string(m.Session.Principal)), activeStyle(string(m.role)))

	body := "Saving..."
	if m.form != nil {
		body = m.form.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		body,
	)

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type profileLoadedMsg struct {
	profile     *access.UserProfile
	role        access.Role
	initialized bool
	err         error
}

type profileSavedMsg struct {
	tokens access.Tokens
	err    error
}

func (m ProfileModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		profile, err := m.access.CallerProfile(ctx)
		if err != nil {
			return profileLoadedMsg{err: err}
		}

		role, err := m.access.CallerRole(ctx)
		if err != nil {
			return profileLoadedMsg{err: err}
		}

		initialized, err := m.access.Initialized(ctx)
		if err != nil {
			return profileLoadedMsg{err: err}
		}

		return profileLoadedMsg{profile: profile, role: role, initialized: initialized}
	}
}

func (m ProfileModel) saveCmd(profile access.UserProfile, tokens access.Tokens) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		err := m.access.SaveCallerProfile(ctx, profile, tokens)

		return profileSavedMsg{tokens: tokens, err: err}
	}
}
