package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type entriesState int

const (
	entriesStateBrowse entriesState = iota
	entriesStateAdd
	entriesStateDelete
)

type entryForm struct {
	PersonID int64
	Amount   string
	Value    string
	Day      string
	Month    string
	Year     string
	Confirm  bool
}

// params validates the form the same way the ledger does before anything is sent.
func (f *entryForm) params() (ledger.CreateParams, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil {
		return ledger.CreateParams{}, fmt.Errorf("invalid ICP amount")
	}

	value, err := decimal.NewFromString(strings.TrimSpace(f.Value))
	if err != nil {
		return ledger.CreateParams{}, fmt.Errorf("invalid token value")
	}

	day, _ := strconv.Atoi(strings.TrimSpace(f.Day))
	month, _ := strconv.Atoi(strings.TrimSpace(f.Month))
	year, _ := strconv.Atoi(strings.TrimSpace(f.Year))

	date, err := ledger.ReceivedDate(day, month, year)
	if err != nil {
		return ledger.CreateParams{}, err
	}

	return ledger.CreateParams{
		PersonID:      f.PersonID,
		ICPAmount:     amount,
		ICPTokenValue: value,
		Date:          date,
	}, nil
}

func positiveDecimal(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}

	if !d.IsPositive() {
		return fmt.Errorf("must be greater than zero")
	}

	return nil
}

// EntriesModel lists every entry, or only one person's when person is set.
type EntriesModel struct {
	CommonModel
	persons *person.Service
	entries *ledger.Service
	person  *person.Person

	state   entriesState
	table   table.Model
	list    []*ledger.Entry
	names   map[int64]string
	options []huh.Option[int64]
	total   decimal.Decimal
	rolling decimal.Decimal

	form    *huh.Form
	fields  *entryForm
	loading bool
	err     error
	status  string
}

func NewEntriesModel(session *Session, persons *person.Service, entries *ledger.Service, p *person.Person) EntriesModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Person", Width: 18},
		{Title: "ICP Amount", Width: 12},
		{Title: "Token Value", Width: 12},
		{Title: "Income", Width: 14},
		{Title: "Recorded", Width: 17},
	}

	return EntriesModel{
		CommonModel: CommonModel{Session: session},
		persons:     persons,
		entries:     entries,
		person:      p,
		table:       newTable(columns, 15),
		names:       map[int64]string{},
		loading:     true,
	}
}

func (m EntriesModel) Title() string {
	if m.person != nil {
		return "Entries of " + m.person.Name
	}

	return "All Entries"
}

func (m EntriesModel) ShortHelp() string {
	if m.state != entriesStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | a: add | x: delete | r: refresh"
}

func (m EntriesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m EntriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.list = msg.entries
		m.total = msg.total
		m.rolling = msg.rolling
		m.names = make(map[int64]string, len(msg.persons))
		m.options = make([]huh.Option[int64], 0, len(msg.persons))

		for _, p := range msg.persons {
			m.names[p.ID] = p.Name
			m.options = append(m.options, huh.NewOption(p.Name, p.ID))
		}

		m.refreshTable()

		return m, nil

	case entrySavedMsg:
		m.state = entriesStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		} else {
			m.status = successStyle(msg.done)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	if m.state == entriesStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m EntriesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			if len(m.options) == 0 {
				m.status = errorStyle("Add a person first.")
				return m, nil
			}

			return m.enterAdd()
		case "x":
			if m.selected() == nil {
				return m, nil
			}

			return m.enterDelete()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m EntriesModel) enterAdd() (tea.Model, tea.Cmd) {
	now := time.Now().UTC()
	m.fields = &entryForm{
		Day:   strconv.Itoa(now.Day()),
		Month: strconv.Itoa(int(now.Month())),
		Year:  strconv.Itoa(now.Year()),
	}

	var fields []huh.Field

	if m.person != nil {
		m.fields.PersonID = m.person.ID
	} else {
		fields = append(fields, huh.NewSelect[int64]().
			Key("person").
			Title("Person").
			Options(m.options...).
			Value(&m.fields.PersonID))
	}

	fields = append(fields,
		huh.NewInput().Key("amount").Title("ICP Amount").Value(&m.fields.Amount).Validate(positiveDecimal),
		huh.NewInput().Key("value").Title("Token Value (USD)").Value(&m.fields.Value).Validate(positiveDecimal),
		huh.NewInput().Key("day").Title("Day").Value(&m.fields.Day).CharLimit(2),
		huh.NewInput().Key("month").Title("Month").Value(&m.fields.Month).CharLimit(2),
		huh.NewInput().Key("year").Title("Year").Value(&m.fields.Year).CharLimit(4),
	)

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(45).WithShowHelp(false)
	m.state = entriesStateAdd
	m.table.Blur()

	return m, m.form.Init()
}

func (m EntriesModel) enterDelete() (tea.Model, tea.Cmd) {
	e := m.selected()
	m.fields = &entryForm{}

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Key("confirm").
			Title(fmt.Sprintf("Delete the %s entry of %s ICP?", FormatDate(e.Date), FormatDecimal(e.ICPAmount))).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&m.fields.Confirm),
	)).WithWidth(45).WithShowHelp(false)
	m.state = entriesStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m EntriesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = entriesStateBrowse
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
	case entriesStateAdd:
		params, err := m.fields.params()
		if err != nil {
			return m, func() tea.Msg { return entrySavedMsg{err: err} }
		}

		return m, m.createCmd(params)
	case entriesStateDelete:
		if !m.fields.Confirm {
			m.state = entriesStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}

		return m, m.deleteCmd(m.selected())
	}

	return m, nil
}

func (m EntriesModel) selected() *ledger.Entry {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil
	}

	return m.list[idx]
}

func (m *EntriesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, e := range m.list {
		rows = append(rows, table.Row{
			FormatDate(e.Date),
			m.names[e.PersonID],
			FormatDecimal(e.ICPAmount),
			FormatDecimal(e.ICPTokenValue),
			FormatDecimal(e.IncomeValue),
			time.Unix(0, e.Timestamp).Format("2006-01-02 15:04"),
		})
	}

	m.table.SetRows(rows)
}

func (m EntriesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading entries...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("%s | Total: %s", m.Title(), activeStyle(FormatDecimal(m.total)))
	if m.person != nil {
		header += fmt.Sprintf(" | Last 30 days: %s", activeStyle(FormatDecimal(m.rolling)))
	}

	body := "No entries yet."
	if len(m.list) > 0 {
		body = boxed(m.table.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		body,
	)

	if m.state != entriesStateBrowse && m.form != nil {
		title := "New Entry"
		if m.state == entriesStateDelete {
			title = "Delete Entry"
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

type entriesLoadedMsg struct {
	entries []*ledger.Entry
	persons []*person.Person
	total   decimal.Decimal
	rolling decimal.Decimal
	err     error
}

type entrySavedMsg struct {
	done string
	err  error
}

func (m EntriesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		persons, err := m.persons.List(ctx)
		if err != nil {
			return entriesLoadedMsg{err: err}
		}

		msg := entriesLoadedMsg{persons: persons}

		if m.person == nil {
			msg.entries, err = m.entries.List(ctx)
			if err == nil {
				msg.total, err = m.entries.TotalIncome(ctx)
			}
		} else {
			msg.entries, err = m.entries.ListByPerson(ctx, m.person.ID)
			if err == nil {
				msg.total, err = m.entries.TotalIncomeByPerson(ctx, m.person.ID)
			}

			if err == nil {
				msg.rolling, err = m.entries.Rolling30DayIncome(ctx, m.person.ID)
			}
		}

		msg.err = err

		return msg
	}
}

func (m EntriesModel) createCmd(params ledger.CreateParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		e, err := m.entries.Create(ctx, params, m.Session.Tokens)
		if err != nil {
			return entrySavedMsg{err: err}
		}

		return entrySavedMsg{done: fmt.Sprintf("Recorded %s of income.", FormatDecimal(e.IncomeValue))}
	}
}

func (m EntriesModel) deleteCmd(e *ledger.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		if err := m.entries.Delete(ctx, e.Timestamp, m.Session.Tokens); err != nil {
			return entrySavedMsg{err: err}
		}

		return entrySavedMsg{done: "Entry deleted."}
	}
}
