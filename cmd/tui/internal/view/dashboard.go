package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type personTotals struct {
	person  *person.Person
	summary ledger.Summary
	rolling decimal.Decimal
}

type DashboardModel struct {
	CommonModel
	persons *person.Service
	entries *ledger.Service

	table   table.Model
	overall ledger.Summary
	rows    []personTotals
	loading bool
	err     error
}

func NewDashboardModel(session *Session, persons *person.Service, entries *ledger.Service) DashboardModel {
	columns := []table.Column{
		{Title: "Person", Width: 24},
		{Title: "Entries", Width: 8},
		{Title: "Total Income", Width: 16},
		{Title: "Last 30 Days", Width: 16},
		{Title: "Average", Width: 14},
	}

	return DashboardModel{
		CommonModel: CommonModel{Session: session},
		persons:     persons,
		entries:     entries,
		table:       newTable(columns, 12),
		loading:     true,
	}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.overall = msg.overall
			m.rows = msg.rows
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 14)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DashboardModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{
			r.person.Name,
			fmt.Sprintf("%d", r.summary.Count),
			FormatDecimal(r.summary.Total),
			FormatDecimal(r.rolling),
			FormatDecimal(r.summary.Average),
		})
	}

	m.table.SetRows(rows)
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading dashboard...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	card := func(label, value string) string {
		return lipgloss.NewStyle().
			Padding(0, 2).
			MarginRight(2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render(label + "\n" + activeStyle(value))
	}

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Income", FormatDecimal(m.overall.Total)),
		card("Entries", fmt.Sprintf("%d", m.overall.Count)),
		card("Average Income", FormatDecimal(m.overall.Average)),
	)

	body := "No persons yet."
	if len(m.rows) > 0 {
		body = boxed(m.table.View())
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, cards, "", body),
	)
}

type dashboardLoadedMsg struct {
	overall ledger.Summary
	rows    []personTotals
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		overall, err := m.entries.Summary(ctx, nil)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		persons, err := m.persons.List(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		rows := make([]personTotals, 0, len(persons))

		for _, p := range persons {
			summary, err := m.entries.Summary(ctx, &p.ID)
			if err != nil {
				return dashboardLoadedMsg{err: err}
			}

			rolling, err := m.entries.Rolling30DayIncome(ctx, p.ID)
			if err != nil {
				return dashboardLoadedMsg{err: err}
			}

			rows = append(rows, personTotals{person: p, summary: summary, rolling: rolling})
		}

		return dashboardLoadedMsg{overall: overall, rows: rows}
	}
}
