package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type helpModel struct {
	keys  keyMap
	theme *Theme
	width int
}

func newHelpModel(theme *Theme) helpModel {
	return helpModel{
		keys:  defaultKeyMap(),
		theme: theme,
		width: 80,
	}
}

func (m *helpModel) SetWidth(width int) {
	m.width = width
}

func (m helpModel) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.TopBarTitle.Render("docchat help"))
	b.WriteString("\n\n")

	b.WriteString(t.PaneTitle.Render("chat"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  send message\n", t.SessionActive.Render("enter")))
	b.WriteString(fmt.Sprintf("  %s  regenerate last answer\n", t.SessionActive.Render("ctrl+r")))
	b.WriteString(fmt.Sprintf("  %s  edit last question\n", t.SessionActive.Render("ctrl+e")))
	b.WriteString(fmt.Sprintf("  %s  cancel edit / close prompt\n", t.SessionActive.Render("esc")))

	b.WriteString("\n")
	b.WriteString(t.PaneTitle.Render("sessions"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  cycle focus\n", t.SessionActive.Render("tab")))
	b.WriteString(fmt.Sprintf("  %s  open selected session\n", t.SessionActive.Render("enter")))
	b.WriteString(fmt.Sprintf("  %s  new chat\n", t.SessionActive.Render("ctrl+n")))
	b.WriteString(fmt.Sprintf("  %s  rename selected\n", t.SessionActive.Render("r")))
	b.WriteString(fmt.Sprintf("  %s  delete selected\n", t.SessionActive.Render("d")))

	b.WriteString("\n")
	b.WriteString(t.PaneTitle.Render("documents"))
	b.WriteString("\n")
	b.WriteString(t.FileChip.Render("  /upload <path> [path...]  attach documents"))
	b.WriteString("\n")
	b.WriteString(t.FileChip.Render("  /files                    list attached documents"))
	b.WriteString("\n")
	b.WriteString(t.FileChip.Render("  /rm <file-id>             detach a document"))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(t.Footer.Render("ctrl+c quit | tab focus | ? toggle help"))

	return b.String()
}

type keyMap struct {
	Quit       key.Binding
	Enter      key.Binding
	FocusNext  key.Binding
	NewChat    key.Binding
	Regenerate key.Binding
	EditLast   key.Binding
	Rename     key.Binding
	Delete     key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Up         key.Binding
	Down       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle focus"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "regenerate"),
		),
		EditLast: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "edit last question"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename session"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete session"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down", "next"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.FocusNext, k.NewChat, k.Regenerate, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Enter, k.FocusNext, k.NewChat},
		{k.Regenerate, k.EditLast, k.Rename, k.Delete},
		{k.Cancel, k.Help, k.Quit},
	}
}
