package main

import (
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/icpledger/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/config"
	"github.com/MrJamesThe3rd/icpledger/internal/export"
	"github.com/MrJamesThe3rd/icpledger/internal/importer"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/logging"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
	"github.com/MrJamesThe3rd/icpledger/internal/storage"
)

type services struct {
	access  *access.Service
	persons *person.Service
	entries *ledger.Service
	imports *importer.Service
	exports *export.Service
}

type model struct {
	session  *view.Session
	services services

	currentView View

	dashboardView view.DashboardModel
	personsView   view.PersonsModel
	entriesView   view.EntriesModel
	importView    view.ImportModel
	exportView    view.ExportModel
	profileView   view.ProfileModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewPersons   View = 2
	ViewEntries   View = 3
	ViewImport    View = 4
	ViewExport    View = 5
	ViewProfile   View = 6
)

func initialModel(cfg *config.Config, repos *storage.Repositories) model {
	accessSvc := access.NewService(repos.Access, cfg.Auth.AdminToken)
	ledgerSvc := ledger.NewService(repos.Entries, accessSvc)

	svcs := services{
		access:  accessSvc,
		persons: person.NewService(repos.Persons, accessSvc),
		entries: ledgerSvc,
		imports: importer.NewService(),
		exports: export.NewService(ledgerSvc),
	}

	session := &view.Session{
		Principal:  access.Principal(cfg.TUI.Principal),
		AdminToken: cfg.Auth.AdminToken,
	}

	return model{
		session:     session,
		services:    svcs,
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.session, m.services.persons, m.services.entries)

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewPersons
				m.personsView = view.NewPersonsModel(m.session, m.services.persons)

				return m, m.personsView.Init()
			case "3":
				return m.openEntries(nil)
			case "4":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.session, m.services.persons, m.services.entries, m.services.imports)

				return m, m.importView.Init()
			case "5":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.session, m.services.persons, m.services.exports)

				return m, m.exportView.Init()
			case "6":
				m.currentView = ViewProfile
				m.profileView = view.NewProfileModel(m.session, m.services.access)

				return m, m.profileView.Init()
			}
		}
	case view.OpenEntriesMsg:
		return m.openEntries(msg.Person)
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewPersons:
		var newModel tea.Model
		newModel, cmd = m.personsView.Update(msg)
		m.personsView = newModel.(view.PersonsModel)
	case ViewEntries:
		var newModel tea.Model
		newModel, cmd = m.entriesView.Update(msg)
		m.entriesView = newModel.(view.EntriesModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	case ViewProfile:
		var newModel tea.Model
		newModel, cmd = m.profileView.Update(msg)
		m.profileView = newModel.(view.ProfileModel)
	}

	return m, cmd
}

func (m model) openEntries(p *person.Person) (tea.Model, tea.Cmd) {
	m.currentView = ViewEntries
	m.entriesView = view.NewEntriesModel(m.session, m.services.persons, m.services.entries, p)

	return m, m.entriesView.Init()
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"ICP Ledger\n" +
				"Signed in as " + string(m.session.Principal) + "\n\n" +
				"1. Dashboard\n" +
				"2. Persons\n" +
				"3. All Entries\n" +
				"4. Import Entries\n" +
				"5. Export Entries\n" +
				"6. Profile\n\n" +
				"q. Quit",
		)
	case ViewDashboard:
		current = m.dashboardView
	case ViewPersons:
		current = m.personsView
	case ViewEntries:
		current = m.entriesView
	case ViewImport:
		current = m.importView
	case ViewExport:
		current = m.exportView
	case ViewProfile:
		current = m.profileView
	default:
		return "Unknown View"
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(1).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, current.View(), help)
}

// logOutput keeps log lines off the terminal the UI draws on.
func logOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}

	return f, f.Close, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	out, closeLog, err := logOutput(cfg.TUI.LogFile)
	if err != nil {
		slog.Error("failed to open log file", "path", cfg.TUI.LogFile, "error", err)
		os.Exit(1)
	}
	defer closeLog()

	slog.SetDefault(logging.NewLogger(out, cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Name+"-tui", cfg.App.Env))

	repos, err := storage.Open(cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	p := tea.NewProgram(initialModel(cfg, repos), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
