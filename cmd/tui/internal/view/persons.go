package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type personsState int

const (
	personsStateBrowse personsState = iota
	personsStateAdd
	personsStateDelete
)

// OpenEntriesMsg asks the root model to show the entries of one person.
type OpenEntriesMsg struct {
	Person *person.Person
}

// personForm is heap-allocated so that huh keeps writing to the same fields
// while the model is copied between updates.
type personForm struct {
	Name    string
	Confirm bool
}

type PersonsModel struct {
	CommonModel
	persons *person.Service

	state   personsState
	table   table.Model
	list    []*person.Person
	form    *huh.Form
	fields  *personForm
	loading bool
	err     error
	status  string
}

func NewPersonsModel(session *Session, persons *person.Service) PersonsModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 30},
		{Title: "Created", Width: 12},
	}

	return PersonsModel{
		CommonModel: CommonModel{Session: session},
		persons:     persons,
		table:       newTable(columns, 15),
		loading:     true,
	}
}

func (m PersonsModel) Title() string { return "Persons" }

func (m PersonsModel) ShortHelp() string {
	if m.state != personsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Enter: entries | a: add | x: delete | r: refresh"
}

func (m PersonsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PersonsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case personsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.list = msg.persons
		m.refreshTable()

		return m, nil

	case personSavedMsg:
		m.state = personsStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		} else {
			m.status = successStyle(msg.done)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == personsStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m PersonsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			return m.enterForm(personsStateAdd)
		case "x":
			if m.selected() == nil {
				return m, nil
			}

			return m.enterForm(personsStateDelete)
		case "enter":
			if p := m.selected(); p != nil {
				return m, func() tea.Msg { return OpenEntriesMsg{Person: p} }
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m PersonsModel) enterForm(state personsState) (tea.Model, tea.Cmd) {
	m.fields = &personForm{}

	var field huh.Field

	switch state {
	case personsStateAdd:
		field = huh.NewInput().
			Key("name").
			Title("Name").
			Value(&m.fields.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name cannot be empty")
				}

				return nil
			})
	case personsStateDelete:
		field = huh.NewConfirm().
			Key("confirm").
			Title(fmt.Sprintf("Delete %s and all of their entries?", m.selected().Name)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&m.fields.Confirm)
	}

	m.form = huh.NewForm(huh.NewGroup(field)).WithWidth(45).WithShowHelp(false)
	m.state = state
	m.table.Blur()

	return m, m.form.Init()
}

func (m PersonsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = personsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
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

	// The completed form stays completed; drop it so later messages cannot submit twice.
	m.form = nil

	switch m.state {
	case personsStateAdd:
		return m, m.createCmd(m.fields.Name)
	case personsStateDelete:
		if !m.fields.Confirm {
			m.state = personsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}

		return m, m.deleteCmd(m.selected())
	}

	return m, nil
}

func (m PersonsModel) selected() *person.Person {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil
	}

	return m.list[idx]
}

func (m *PersonsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, p := range m.list {
		rows = append(rows, table.Row{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			FormatDate(p.CreatedAt),
		})
	}

	m.table.SetRows(rows)
}

func (m PersonsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading persons...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	content := boxed(m.table.View())

	if m.state != personsStateBrowse && m.form != nil {
		title := "Add Person"
		if m.state == personsStateDelete {
			title = "Delete Person"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type personsLoadedMsg struct {
	persons []*person.Person
	err     error
}

type personSavedMsg struct {
	done string
	err  error
}

func (m PersonsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		persons, err := m.persons.List(ctx)

		return personsLoadedMsg{persons: persons, err: err}
	}
}

func (m PersonsModel) createCmd(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		p, err := m.persons.Create(ctx, name, m.Session.Tokens)
		if err != nil {
			return personSavedMsg{err: err}
		}

		return personSavedMsg{done: fmt.Sprintf("Added %s (#%d).", p.Name, p.ID)}
	}
}

func (m PersonsModel) deleteCmd(p *person.Person) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		if err := m.persons.Delete(ctx, p.ID, m.Session.Tokens); err != nil {
			return personSavedMsg{err: err}
		}

		return personSavedMsg{done: fmt.Sprintf("Deleted %s.", p.Name)}
	}
}
