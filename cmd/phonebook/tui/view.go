package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"phonebook/cmd/phonebook/ui"
)

// View renders the page.
func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Phonebook"))
	b.WriteString("\n")

	if n := m.state.Error; n.Active() {
		b.WriteString(s.Error.Render(n.Message))
		b.WriteString("\n")
	}
	if n := m.state.Success; n.Active() {
		b.WriteString(s.Success.Render(n.Message))
		b.WriteString("\n")
	}

	if m.pending != nil {
		b.WriteString(m.renderModal())
		b.WriteString("\n")
	}

	b.WriteString(m.field("filter", m.search.View(), focusSearch))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("Add a new"))
	b.WriteString("\n")
	b.WriteString(m.field("name", m.name.View(), focusName))
	b.WriteString("\n")
	b.WriteString(m.field("number", m.number.View(), focusNumber))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render("press enter to add"))
	b.WriteString("\n\n")

	header := "Numbers"
	if m.focus == focusList {
		header = "▸ " + header
	}
	b.WriteString(s.Section.Render(header))
	if m.busy > 0 {
		b.WriteString("  " + m.spinner.View() + s.Muted.Render(" working"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderList())

	b.WriteString("\n")
	b.WriteString(s.Footer.Render(m.help.View(m.helpKeys())))

	return s.App.Render(b.String())
}

func (m Model) field(label, input string, f focus) string {
	style := m.styles.Label
	if m.focus == f {
		style = m.styles.FocusedLabel
	}
	return style.Render(label) + " " + input
}

func (m Model) renderList() string {
	visible := m.state.Visible()
	table := ui.NewContactTable(visible)
	if m.focus == focusList {
		table.Cursor = m.cursor
	}

	empty := "No contacts yet"
	if m.state.Search != "" && len(m.state.Contacts) > 0 {
		empty = "No contacts match the filter"
	}
	start, end := ui.Window(len(visible), m.cursor, m.layout.ListRows())
	return table.View(m.styles, start, end, empty)
}

func (m Model) renderModal() string {
	s := m.styles
	body := lipgloss.JoinVertical(lipgloss.Left,
		s.Warning.Render("Confirm"),
		"",
		s.Body.Render(m.pending.prompt),
		"",
		s.Muted.Render("y to confirm, n or esc to cancel"),
	)
	return s.Modal.Width(m.layout.ModalWidth()).Render(body)
}
