package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"phonebook/internal/contact"
)

// ContactTable renders contacts as aligned name/number columns.
type ContactTable struct {
	Contacts []contact.Contact
	// Cursor highlights one row; -1 for none.
	Cursor int
	// ShowIDs adds an id column, used by the list command so ids can be
	// passed to delete.
	ShowIDs bool
}

// NewContactTable creates a table without a cursor.
func NewContactTable(contacts []contact.Contact) *ContactTable {
	return &ContactTable{Contacts: contacts, Cursor: -1}
}

func (t *ContactTable) columns() []string {
	if t.ShowIDs {
		return []string{"ID", "Name", "Number"}
	}
	return []string{"Name", "Number"}
}

func (t *ContactTable) row(c contact.Contact) []string {
	if t.ShowIDs {
		return []string{c.ID.String(), c.Name, c.Number}
	}
	return []string{c.Name, c.Number}
}

// View renders rows [start, end) of the table. An empty table renders the
// empty message instead.
func (t *ContactTable) View(styles Styles, start, end int, empty string) string {
	if len(t.Contacts) == 0 {
		return styles.Muted.Render(empty) + "\n"
	}
	if start < 0 {
		start = 0
	}
	if end > len(t.Contacts) || end < start {
		end = len(t.Contacts)
	}

	headers := t.columns()
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	// Widths come from every row so columns do not shift while scrolling.
	for _, c := range t.Contacts {
		for i, cell := range t.row(c) {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	headerStyle := styles.Bold.Padding(0, 1)
	cellStyle := styles.Body.Padding(0, 1)

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(headerStyle.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := 0
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.RenderDivider(total) + "\n")

	for idx := start; idx < end; idx++ {
		cells := t.row(t.Contacts[idx])
		var line strings.Builder
		for i, cell := range cells {
			line.WriteString(cellStyle.Width(widths[i]).Render(cell))
		}
		if idx == t.Cursor {
			sb.WriteString(styles.Selected.Render(line.String()))
		} else {
			sb.WriteString(line.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
