package view

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/icpledger/internal/importer"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStatePersonSelect importState = iota
	importStateFilePick
	importStateImporting
	importStateConflicts
	importStateResult
)

type ImportModel struct {
	CommonModel
	persons       *person.Service
	entries       *ledger.Service
	importService *importer.Service

	state        importState
	filePicker   filepicker.Model
	personList   []*person.Person
	personCursor int
	target       *person.Person

	newParams    []ledger.CreateParams
	conflicts    []ledger.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

func NewImportModel(session *Session, persons *person.Service, entries *ledger.Service, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		CommonModel:   CommonModel{Session: session},
		persons:       persons,
		entries:       entries,
		importService: impSvc,
		filePicker:    fp,
		selected:      make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import Entries" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStateConflicts:
		return "Space: toggle | a: all | n: none | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return tea.Batch(m.loadPersonsCmd(), m.filePicker.Init())
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStatePersonSelect {
			return m.updatePersonSelect(msg)
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case importPersonsMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.personList = msg.persons

		return m, nil

	case importResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		if len(msg.result.Conflicts) == 0 {
			m.state = importStateResult
			m.status = fmt.Sprintf("Imported %d entries for %s.", len(msg.result.Imported), m.target.Name)

			return m, nil
		}

		m.newParams = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		delegate := conflictDelegate{selected: &m.selected}
		m.conflictList = list.New(items, delegate, 80, 20)
		m.conflictList.Title = "Possible Duplicates"
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil

	case confirmResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d entries for %s.", msg.count, m.target.Name)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick:
		m.state = importStatePersonSelect
		return m, nil
	case importStateResult:
		m.state = importStatePersonSelect
		m.err = nil
		m.status = ""

		return m, nil
	case importStateConflicts:
		m.state = importStatePersonSelect
		m.conflicts = nil
		m.newParams = nil
		m.selected = make(map[int]bool)

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updatePersonSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.personCursor > 0 {
			m.personCursor--
		}
	case tea.KeyDown:
		if m.personCursor < len(m.personList)-1 {
			m.personCursor++
		}
	case tea.KeyEnter:
		if len(m.personList) == 0 {
			return m, nil
		}

		m.target = m.personList[m.personCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStatePersonSelect:
		return m.viewPersonSelect()
	case importStateFilePick:
		return m.viewFilePick()
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.conflictList.View())
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewPersonSelect() string {
	if len(m.personList) == 0 {
		return lipgloss.NewStyle().Padding(2).Render("No persons yet. Add one on the Persons screen first.")
	}

	s := "Import entries for:\n\n"

	for i, p := range m.personList {
		cursor := " "
		if i == m.personCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, p.Name)
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewFilePick() string {
	return lipgloss.NewStyle().Padding(1).Render(
		fmt.Sprintf("Select a CSV file for %s:\n\n%s", m.target.Name, m.filePicker.View()),
	)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(successStyle(m.status) + "\n\n(Esc to go back)")
}

// Messages

type importPersonsMsg struct {
	persons []*person.Person
	err     error
}

type importResultMsg struct {
	result *ledger.ImportResult
	err    error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) loadPersonsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.Session.Ctx()
		defer cancel()

		persons, err := m.persons.List(ctx)

		return importPersonsMsg{persons: persons, err: err}
	}
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	personID := m.target.ID

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatCSV, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := m.Session.CtxWithTimeout(importTimeout)
		defer cancel()

		result, err := m.entries.ImportBatch(ctx, personID, params, m.Session.Tokens)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	personID := m.target.ID
	allParams := acceptedParams(m.newParams, m.conflicts, m.selected)

	return func() tea.Msg {
		ctx, cancel := m.Session.CtxWithTimeout(importTimeout)
		defer cancel()

		created, err := m.entries.CreateBatch(ctx, personID, allParams, m.Session.Tokens)
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: len(created)}
	}
}

// acceptedParams returns the new rows plus the conflicting rows the operator chose to keep.
func acceptedParams(newParams []ledger.CreateParams, conflicts []ledger.Conflict, selected map[int]bool) []ledger.CreateParams {
	all := make([]ledger.CreateParams, 0, len(newParams)+len(conflicts))
	all = append(all, newParams...)

	for i, c := range conflicts {
		if selected[i] {
			all = append(all, c.Incoming)
		}
	}

	return all
}

// Conflict list item

type conflictItem struct {
	conflict ledger.Conflict
	index    int
}

func (i conflictItem) Title() string       { return "" }
func (i conflictItem) Description() string { return "" }
func (i conflictItem) FilterValue() string { return "" }

// Conflict list delegate

type conflictDelegate struct {
	selected *map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if (*d.selected)[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing

	line1 := fmt.Sprintf("%s%s %s  %s ICP @ %s",
		cursor, checkbox,
		FormatDate(incoming.Date),
		FormatDecimal(incoming.ICPAmount),
		FormatDecimal(incoming.ICPTokenValue),
	)

	line2 := fmt.Sprintf("      Existing: %s  %s ICP @ %s = %s",
		FormatDate(existing.Date),
		FormatDecimal(existing.ICPAmount),
		FormatDecimal(existing.ICPTokenValue),
		FormatDecimal(existing.IncomeValue),
	)

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
