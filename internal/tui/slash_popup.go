package tui

import (
	"strings"

	"github.com/muesli/reflow/truncate"
)

type slashPopupItem struct {
	Label       string
	Description string
	InsertText  string
}

var slashCommands = []slashPopupItem{
	{Label: "/upload", Description: "attach documents: /upload <path> [path...]", InsertText: "/upload "},
	{Label: "/files", Description: "list attached documents", InsertText: "/files"},
	{Label: "/rm", Description: "detach a document: /rm <file-id>", InsertText: "/rm "},
	{Label: "/help", Description: "show help", InsertText: "/help"},
}

func (m *MainModel) updateSlashPopupState() {
	key, items := m.slashPopupState()
	if key != m.slashPopupKey {
		m.slashPopupKey = key
		m.slashPopupIndex = 0
	}
	if len(items) == 0 {
		m.slashPopupIndex = 0
		return
	}
	if m.slashPopupIndex < 0 {
		m.slashPopupIndex = 0
	}
	if m.slashPopupIndex >= len(items) {
		m.slashPopupIndex = len(items) - 1
	}
}

func (m *MainModel) slashPopupItems() []slashPopupItem {
	_, items := m.slashPopupState()
	return items
}

func (m *MainModel) slashPopupState() (key string, items []slashPopupItem) {
	if m.focus != focusInput || m.prompt != promptNone {
		return "", nil
	}

	raw := strings.TrimLeft(m.input.Value(), " \t")
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return "", nil
	}
	if strings.ContainsAny(raw, "\n\r") {
		return "", nil
	}
	// Once an argument is started the command token is settled.
	if strings.ContainsAny(raw, " \t") {
		return "", nil
	}

	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "/" {
		token = ""
	}
	key = "cmd:" + token
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd.Label, token) {
			items = append(items, cmd)
		}
	}
	return key, items
}

func (m *MainModel) completeSlashPopup() bool {
	items := m.slashPopupItems()
	if len(items) == 0 {
		return false
	}
	idx := m.slashPopupIndex
	if idx < 0 || idx >= len(items) {
		idx = 0
	}
	m.input.SetValue(items[idx].InsertText)
	m.input.CursorEnd()
	return true
}

func (m *MainModel) moveSlashPopup(delta int) bool {
	items := m.slashPopupItems()
	if len(items) == 0 {
		return false
	}
	m.slashPopupIndex += delta
	if m.slashPopupIndex < 0 {
		m.slashPopupIndex = 0
	}
	if m.slashPopupIndex >= len(items) {
		m.slashPopupIndex = len(items) - 1
	}
	return true
}

func (m *MainModel) renderSlashPopup() string {
	items := m.slashPopupItems()
	if len(items) == 0 {
		return ""
	}

	idx := m.slashPopupIndex
	if idx < 0 || idx >= len(items) {
		idx = 0
	}

	width := m.width - 4
	if width < 24 {
		width = 24
	}

	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("commands"))
	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("↑/↓ select • tab complete"))
	b.WriteString("\n")

	labelW := 10
	for i, item := range items {
		prefix := "  "
		style := m.theme.SessionItem
		if i == idx {
			prefix = "› "
			style = m.theme.SessionSel
		}
		label := truncate.StringWithTail(item.Label, uint(labelW), "…")
		descW := width - 4 - labelW
		if descW < 0 {
			descW = 0
		}
		desc := truncate.StringWithTail(item.Description, uint(descW), "…")
		line := prefix + style.Render(label)
		if strings.TrimSpace(desc) != "" {
			line += " " + m.theme.FileChip.Render(desc)
		}
		b.WriteString(line)
		if i < len(items)-1 {
			b.WriteString("\n")
		}
	}

	return m.theme.Pane.Width(width).Render(b.String())
}
