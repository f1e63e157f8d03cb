package view

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/icpledger/internal/export"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type exportState int

const (
	exportStateLoading exportState = iota
	exportStateForm
	exportStateExporting
	exportStateResult
)

const exportTimeout = 2 * time.Minute

// allPersons is the scope option exporting every person's entries.
const allPersons int64 = 0

type exportForm struct {
	PersonID int64
	Dir      string
}

type ExportModel struct {
	CommonModel
	persons       *person.Service
	exportService *export.Service

	state   exportState
	err     error
	form    *huh.Form
	fields  *exportForm
	spinner spinner.Model
	summary string
}

func NewExportModel(session *Session, persons *person.Service, svc *export.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		CommonModel:   CommonModel{Session: session},
		persons:       persons,
		exportService: svc,
		fields:        &exportForm{Dir: "./exports"},
		spinner:       s,
	}
}

func (m ExportModel) Title() string { return "Export Entries" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.loadPersonsCmd()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.state != exportStateExporting {
		return m, Back
	}

	switch m.state {
	case exportStateLoading:
		if loaded, ok := msg.(exportPersonsMsg); ok {
			if loaded.err != nil {
				m.state = exportStateResult
				m.err = loaded.err

				return m, nil
			}

			m.form = m.buildForm(loaded.persons)
			m.state = exportStateForm

			return m, m.form.Init()
		}
	case exportStateForm:
		return m.updateForm(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(*m.fields))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildForm(persons []*person.Person) *huh.Form {
	options := []huh.Option[int64]{huh.NewOption("All persons", allPersons)}
	for _, p := range persons {
		options = append(options, huh.NewOption(p.Name, p.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Key("person").
				Title("Entries of").
				Options(options...).
				Value(&m.fields.PersonID),
			huh.NewInput().
				Key("dir").
				Title("Output Directory").
				Description("Created if it doesn't exist").
				Placeholder("./exports").
				Value(&m.fields.Dir),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading persons...")

	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Exporting entries...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.summary),
	)
}

type exportPersonsMsg struct {
	persons []*person.Person
	err     error
}

type exportResultMsg struct {
	body string
	err  error
}

func (m ExportModel) loadPersonsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		persons, err := m.persons.List(ctx)

		return exportPersonsMsg{persons: persons, err: err}
	}
}

func (m ExportModel) runExportCmd(fields exportForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.CtxWithTimeout(exportTimeout)
		defer cancel()

		var personID *int64
		if fields.PersonID != allPersons {
			personID = &fields.PersonID
		}

		dir := fields.Dir
		if dir == "" {
			dir = "."
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportResultMsg{err: fmt.Errorf("creating output directory: %w", err)}
		}

		path := filepath.Join(dir, export.Filename(personID))

		f, err := os.Create(path)
		if err != nil {
			return exportResultMsg{err: fmt.Errorf("creating export file: %w", err)}
		}

		n, err := m.exportService.Export(ctx, f, personID)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{body: fmt.Sprintf("Wrote %d entries to %s", n, path)}
	}
}
