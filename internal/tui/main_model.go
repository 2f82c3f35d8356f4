package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"docchat/internal/chat"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusChat
	focusSessions
)

type promptKind int

const (
	promptNone promptKind = iota
	promptRename
	promptDeleteSession
	promptDeleteFile
)

type spinMsg struct{}

type ctrlEventMsg struct{ ev chat.Event }

type opDoneMsg struct{ err error }

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type MainModel struct {
	ctrl *chat.Controller

	theme    Theme
	help     helpModel
	markdown *MarkdownRenderer

	width  int
	height int
	ready  bool

	focus focusArea

	input  textarea.Model
	chatVP viewport.Model

	sessionSel int
	sessionOff int

	prompt       promptKind
	promptTarget string

	slashPopupKey   string
	slashPopupIndex int

	showHelp   bool
	statusText string
	spinnerPos int

	events chan chat.Event
}

// NewMainModel wires the session controller into a bubbletea model.
// Events published by the controller arrive on events and are pumped
// back into Update through waitEvent.
func NewMainModel(ctrl *chat.Controller, themeName string, events chan chat.Event) *MainModel {
	ta := textarea.New()
	ta.Placeholder = "Ask about your documents. Enter sends, Tab switches focus."
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false

	// Keep textarea styling minimal; the input container carries the border.
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()

	t := NewTheme(themeName)
	return &MainModel{
		ctrl:       ctrl,
		theme:      t,
		help:       newHelpModel(&t),
		markdown:   NewMarkdownRenderer(&t),
		width:      100,
		height:     30,
		focus:      focusInput,
		input:      ta,
		statusText: "Ready",
		events:     events,
	}
}

func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.refreshSessions(), m.waitEvent())
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(m.width)

		layout := m.computeLayout()
		if !m.ready {
			m.chatVP = viewport.New(layout.ChatW, layout.ChatH)
			m.chatVP.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.chatVP.Width = layout.ChatW
			m.chatVP.Height = layout.ChatH
		}
		m.input.SetWidth(max(10, layout.InputW))
		m.updateChatViewport()
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch {
		case key.Matches(msg, m.help.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.help.keys.Cancel):
			return m, m.onCancel()

		case key.Matches(msg, m.help.keys.FocusNext):
			if m.completeSlashPopup() {
				return m, nil
			}
			m.cycleFocus()
			return m, nil

		case key.Matches(msg, m.help.keys.NewChat):
			m.ctrl.NewChat()
			m.sessionSel = 0
			m.updateChatViewport()
			m.chatVP.GotoBottom()
			return m, nil

		case key.Matches(msg, m.help.keys.Regenerate):
			return m, m.startRegenerate()

		case key.Matches(msg, m.help.keys.EditLast):
			m.beginEditLast()
			return m, nil

		case key.Matches(msg, m.help.keys.Enter):
			return m, m.onEnter()
		}

		if m.focus == focusSessions {
			switch {
			case key.Matches(msg, m.help.keys.Up):
				m.moveSession(-1)
				return m, nil
			case key.Matches(msg, m.help.keys.Down):
				m.moveSession(1)
				return m, nil
			case key.Matches(msg, m.help.keys.Rename):
				return m, m.beginRename()
			case key.Matches(msg, m.help.keys.Delete):
				return m, m.beginDeleteSession()
			case key.Matches(msg, m.help.keys.Help):
				m.showHelp = true
				return m, nil
			}
		}
		if m.focus == focusInput {
			switch msg.Type {
			case tea.KeyUp:
				if m.moveSlashPopup(-1) {
					return m, nil
				}
			case tea.KeyDown:
				if m.moveSlashPopup(1) {
					return m, nil
				}
			}
		}
		if m.focus == focusChat {
			switch msg.Type {
			case tea.KeyUp:
				m.chatVP.LineUp(1)
				return m, nil
			case tea.KeyDown:
				m.chatVP.LineDown(1)
				return m, nil
			case tea.KeyPgUp:
				m.chatVP.ViewUp()
				return m, nil
			case tea.KeyPgDown:
				m.chatVP.ViewDown()
				return m, nil
			}
		}

	case ctrlEventMsg:
		m.applyEvent(msg.ev)
		return m, m.waitEvent()

	case opDoneMsg:
		if msg.err != nil {
			m.statusText = fmt.Sprintf("error: %v", msg.err)
		}
		m.updateChatViewport()
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.ctrl.IsSending() || m.ctrl.IsUploading() {
			return m, m.spinTick()
		}
		m.statusText = "Ready"
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.updateSlashPopupState()

	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *MainModel) View() string {
	if !m.ready {
		return "…"
	}
	if m.showHelp {
		return m.help.View()
	}

	layout := m.computeLayout()
	top := m.renderTopBar()
	main := m.renderMain(layout)
	input := m.renderInputArea(layout)
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, top, main, input, footer)
}

// waitEvent re-arms itself from Update; one controller event per cycle.
func (m *MainModel) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ctrlEventMsg{ev: ev}
	}
}

func (m *MainModel) applyEvent(ev chat.Event) {
	switch ev.Kind {
	case chat.EventSessions:
		if n := m.ctrl.Sessions(); m.sessionSel >= len(n) {
			m.sessionSel = max(0, len(n)-1)
		}
		m.normalizeSessionScroll()
	case chat.EventTimeline:
		m.updateChatViewport()
		m.chatVP.GotoBottom()
	case chat.EventFiles:
		// Chips re-render on the next View.
	case chat.EventStreamDone:
		if ev.Err == nil {
			m.statusText = "Ready"
		}
	case chat.EventUploadDone:
		if ev.Err == nil {
			m.statusText = "Ready"
		}
	case chat.EventNotice:
		if ev.Err != nil {
			m.statusText = fmt.Sprintf("error: %v", ev.Err)
		}
	}
}

func (m *MainModel) onEnter() tea.Cmd {
	if m.focus == focusSessions {
		return m.openSelectedSession()
	}
	if m.focus != focusInput {
		return nil
	}

	val := strings.TrimSpace(m.input.Value())

	switch m.prompt {
	case promptRename:
		m.prompt = promptNone
		m.input.Reset()
		m.input.Placeholder = defaultPlaceholder
		id := m.promptTarget
		return m.runOp("Renaming…", func(ctx context.Context) error {
			return m.ctrl.RenameSession(ctx, id, val)
		})
	case promptDeleteSession:
		m.prompt = promptNone
		m.input.Reset()
		m.input.Placeholder = defaultPlaceholder
		if !strings.EqualFold(val, "y") {
			m.statusText = "Ready"
			return nil
		}
		id := m.promptTarget
		return m.runOp("Deleting…", func(ctx context.Context) error {
			return m.ctrl.DeleteSession(ctx, id)
		})
	case promptDeleteFile:
		m.prompt = promptNone
		m.input.Reset()
		m.input.Placeholder = defaultPlaceholder
		confirmed := strings.EqualFold(val, "y")
		id := m.promptTarget
		if !confirmed {
			m.statusText = "Ready"
			return nil
		}
		return m.runOp("Removing document…", func(ctx context.Context) error {
			return m.ctrl.DeleteFile(ctx, id, true)
		})
	}

	if val == "" {
		return nil
	}

	if cmd, handled := m.handleSlash(val); handled {
		return cmd
	}

	if idx := m.ctrl.EditingIndex(); idx >= 0 {
		m.input.Reset()
		m.statusText = "Thinking…"
		return tea.Batch(m.runOp("", func(ctx context.Context) error {
			return m.ctrl.SubmitEdit(ctx, idx, val)
		}), m.spinTick())
	}

	m.input.Reset()
	m.statusText = "Thinking…"
	return tea.Batch(m.runOp("", func(ctx context.Context) error {
		return m.ctrl.Send(ctx, val)
	}), m.spinTick())
}

const defaultPlaceholder = "Ask about your documents. Enter sends, Tab switches focus."

func (m *MainModel) handleSlash(val string) (tea.Cmd, bool) {
	if !strings.HasPrefix(val, "/") {
		return nil, false
	}
	fields := strings.Fields(val)
	switch fields[0] {
	case "/help":
		m.input.Reset()
		m.showHelp = true
		return nil, true
	case "/upload":
		m.input.Reset()
		if len(fields) < 2 {
			m.statusText = "usage: /upload <path> [path...]"
			return nil, true
		}
		paths := fields[1:]
		m.statusText = "Uploading…"
		return tea.Batch(m.runOp("", func(ctx context.Context) error {
			return m.ctrl.Upload(ctx, paths)
		}), m.spinTick()), true
	case "/files":
		m.input.Reset()
		files := m.ctrl.Files()
		if len(files) == 0 {
			m.statusText = "no documents attached"
			return nil, true
		}
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, fmt.Sprintf("%s (%s)", f.Filename, f.FileID))
		}
		m.statusText = strings.Join(names, "  ")
		return nil, true
	case "/rm":
		m.input.Reset()
		if len(fields) != 2 {
			m.statusText = "usage: /rm <file-id>"
			return nil, true
		}
		m.prompt = promptDeleteFile
		m.promptTarget = fields[1]
		m.input.Placeholder = "Remove document " + fields[1] + "? y/N"
		m.statusText = "Confirm removal"
		return nil, true
	}
	m.statusText = "unknown command: " + fields[0]
	m.input.Reset()
	return nil, true
}

func (m *MainModel) onCancel() tea.Cmd {
	if m.prompt != promptNone {
		m.prompt = promptNone
		m.promptTarget = ""
		m.input.Reset()
		m.input.Placeholder = defaultPlaceholder
		m.statusText = "Ready"
		return nil
	}
	if m.ctrl.EditingIndex() >= 0 {
		m.ctrl.CancelEdit()
		m.input.Reset()
		m.input.Placeholder = defaultPlaceholder
		m.statusText = "Ready"
	}
	return nil
}

func (m *MainModel) startRegenerate() tea.Cmd {
	m.statusText = "Thinking…"
	return tea.Batch(m.runOp("", func(ctx context.Context) error {
		return m.ctrl.Regenerate(ctx)
	}), m.spinTick())
}

func (m *MainModel) beginEditLast() {
	msgs := m.ctrl.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleUser {
			content, err := m.ctrl.BeginEdit(i)
			if err != nil {
				m.statusText = fmt.Sprintf("error: %v", err)
				return
			}
			m.focus = focusInput
			m.input.Focus()
			m.input.SetValue(content)
			m.statusText = "Editing question; Enter resends, Esc cancels"
			return
		}
	}
	m.statusText = "nothing to edit"
}

func (m *MainModel) beginRename() tea.Cmd {
	s, ok := m.selectedSession()
	if !ok {
		return nil
	}
	m.prompt = promptRename
	m.promptTarget = s.ID
	m.focus = focusInput
	m.input.Focus()
	m.input.SetValue(s.Title)
	m.statusText = "Rename session; Enter saves, Esc cancels"
	return nil
}

func (m *MainModel) beginDeleteSession() tea.Cmd {
	s, ok := m.selectedSession()
	if !ok {
		return nil
	}
	m.prompt = promptDeleteSession
	m.promptTarget = s.ID
	m.focus = focusInput
	m.input.Focus()
	m.input.Reset()
	m.input.Placeholder = "Delete \"" + s.Title + "\"? y/N"
	m.statusText = "Confirm delete"
	return nil
}

func (m *MainModel) openSelectedSession() tea.Cmd {
	s, ok := m.selectedSession()
	if !ok {
		return nil
	}
	id := s.ID
	return m.runOp("Loading…", func(ctx context.Context) error {
		return m.ctrl.SelectSession(ctx, id)
	})
}

func (m *MainModel) selectedSession() (chat.Session, bool) {
	sessions := m.ctrl.Sessions()
	if m.sessionSel < 0 || m.sessionSel >= len(sessions) {
		return chat.Session{}, false
	}
	return sessions[m.sessionSel], true
}

func (m *MainModel) refreshSessions() tea.Cmd {
	return m.runOp("", func(ctx context.Context) error {
		return m.ctrl.RefreshSessions(ctx)
	})
}

// runOp executes a controller call off the UI goroutine. State changes
// surface through the controller's event channel; only the error comes
// back directly.
func (m *MainModel) runOp(status string, fn func(context.Context) error) tea.Cmd {
	if status != "" {
		m.statusText = status
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return opDoneMsg{err: fn(ctx)}
	}
}

func (m *MainModel) spinTick() tea.Cmd {
	d := 90 * time.Millisecond
	if os.Getenv("DOCCHAT_REDUCE_MOTION") == "1" {
		d = 250 * time.Millisecond
	}
	return tea.Tick(d, func(_ time.Time) tea.Msg { return spinMsg{} })
}

func (m *MainModel) cycleFocus() {
	next := m.focus + 1
	if next > focusSessions {
		next = focusInput
	}
	// The sidebar collapses on narrow terminals; skip its focus stop too.
	if next == focusSessions && m.computeLayout().SideW == 0 {
		next = focusInput
	}
	m.focus = next
	if m.focus == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *MainModel) moveSession(delta int) {
	sessions := m.ctrl.Sessions()
	if len(sessions) == 0 {
		return
	}
	m.sessionSel += delta
	if m.sessionSel < 0 {
		m.sessionSel = 0
	}
	if m.sessionSel >= len(sessions) {
		m.sessionSel = len(sessions) - 1
	}
	m.normalizeSessionScroll()
}

func (m *MainModel) normalizeSessionScroll() {
	visible := m.computeLayout().SideListH
	if visible <= 0 {
		visible = 1
	}
	if m.sessionSel < m.sessionOff {
		m.sessionOff = m.sessionSel
	}
	if m.sessionSel >= m.sessionOff+visible {
		m.sessionOff = m.sessionSel - visible + 1
	}
	if m.sessionOff < 0 {
		m.sessionOff = 0
	}
	maxOff := len(m.ctrl.Sessions()) - visible
	if maxOff < 0 {
		maxOff = 0
	}
	if m.sessionOff > maxOff {
		m.sessionOff = maxOff
	}
}

func (m *MainModel) updateChatViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	chatWidth := m.computeLayout().ChatW - 2
	if chatWidth < 20 {
		chatWidth = 20
	}
	for _, msg := range m.ctrl.Messages() {
		b.WriteString(m.renderMessage(msg, chatWidth))
		b.WriteString("\n\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *MainModel) renderMessage(msg chat.Message, width int) string {
	var roleStyle lipgloss.Style
	var roleLabel string
	switch msg.Role {
	case chat.RoleUser:
		roleStyle = m.theme.RoleYou
		roleLabel = "YOU"
	default:
		roleStyle = m.theme.RoleAI
		roleLabel = "DOC"
	}
	if msg.Role == chat.RoleAssistant && strings.HasPrefix(msg.Content, "❌") {
		roleStyle = m.theme.RoleErr
		roleLabel = "ERR"
	}

	header := roleStyle.Render(roleLabel)

	var body string
	if msg.Role == chat.RoleAssistant {
		body = m.markdown.Render(msg.Content, width)
	} else {
		body = lipgloss.NewStyle().Foreground(m.theme.TextPrimary).Width(width).Render(msg.Content)
	}
	return header + "\n" + body
}

type layoutInfo struct {
	TopH  int
	FootH int

	MainH int

	SideW     int
	SideListH int

	ChatW int
	ChatH int

	InputH int
	InputW int
}

func (m *MainModel) computeLayout() layoutInfo {
	top := 1
	foot := 1
	inputH := 3
	mainH := m.height - top - foot - inputH
	if mainH < 3 {
		mainH = 3
	}

	sideW := 0
	if m.width >= 80 {
		sideW = 28
		if m.width >= 140 {
			sideW = 36
		}
	}

	gap := 0
	if sideW > 0 {
		gap = 1
	}
	chatW := m.width - sideW - gap
	if chatW < 40 {
		chatW = 40
	}

	// Title line plus the document chips strip.
	sideListH := max(1, mainH-5)

	return layoutInfo{
		TopH: top, FootH: foot, MainH: mainH,
		SideW: sideW, SideListH: sideListH,
		ChatW: chatW, ChatH: mainH,
		InputH: inputH,
		InputW: chatW - 4,
	}
}

func (m *MainModel) renderTopBar() string {
	title := "New Chat"
	if s, ok := m.ctrl.Session(m.ctrl.ActiveSessionID()); ok {
		title = s.Title
	}
	left := m.theme.TopBarTitle.Render("docchat") + " " + m.theme.TopBarBadge.Render(truncateRunes(title, 40))

	status := m.statusText
	if m.ctrl.IsSending() || m.ctrl.IsUploading() {
		status = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos] + " " + m.statusText)
	} else {
		status = m.theme.TopBarMeta.Render(status)
	}
	right := m.theme.TopBarMeta.Render(time.Now().Format("15:04"))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	a := gap / 2
	b := gap - a
	return m.theme.TopBar.Render(left + strings.Repeat(" ", a) + status + strings.Repeat(" ", b) + right)
}

func (m *MainModel) renderFooter() string {
	hints := "Tab focus  Ctrl+N new  Ctrl+R regen  Ctrl+E edit  /upload attach  Ctrl+C quit"
	if m.width < 100 {
		hints = "Tab focus  Ctrl+N new  Ctrl+C quit"
	}
	return m.theme.Footer.Width(m.width).Render(hints)
}

func (m *MainModel) renderInputArea(l layoutInfo) string {
	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxF
	}
	input := box.Width(max(10, m.width-2)).Render(m.input.View())
	if popup := m.renderSlashPopup(); popup != "" {
		return lipgloss.JoinVertical(lipgloss.Left, popup, input)
	}
	return input
}

func (m *MainModel) renderMain(l layoutInfo) string {
	chatPane := m.renderChatPane(l)
	if l.SideW == 0 {
		return chatPane
	}
	sidePane := m.renderSessionsPane(l)
	sep := m.theme.PaneDivider.Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, sidePane, sep, chatPane)
}

func (m *MainModel) renderChatPane(l layoutInfo) string {
	title := "Chat"
	if m.focus == focusChat {
		title = m.theme.PaneTitleF.Render(title)
	} else {
		title = m.theme.PaneTitle.Render(title)
	}
	box := m.theme.Pane
	if m.focus == focusChat {
		box = m.theme.PaneFocused
	}
	return box.Width(l.ChatW - 2).Height(l.ChatH).Render(title + "\n" + m.chatVP.View())
}

func (m *MainModel) renderSessionsPane(l layoutInfo) string {
	sessions := m.ctrl.Sessions()
	titleText := fmt.Sprintf("Sessions (%d)", len(sessions))
	box := m.theme.Pane
	var title string
	if m.focus == focusSessions {
		box = m.theme.PaneFocused
		title = m.theme.PaneTitleF.Render(titleText)
	} else {
		title = m.theme.PaneTitle.Render(titleText)
	}

	list := m.renderSessionList(sessions, l)
	chips := m.renderFileChips(l)

	content := title + "\n" + list
	if chips != "" {
		content += "\n" + m.theme.PaneDivider.Render(strings.Repeat("─", max(1, l.SideW-4))) + "\n" + chips
	}
	return box.Width(l.SideW - 2).Height(l.MainH).Render(content)
}

func (m *MainModel) renderSessionList(sessions []chat.Session, l layoutInfo) string {
	if len(sessions) == 0 {
		return m.theme.SessionItem.Render("No sessions yet.")
	}

	start := m.sessionOff
	end := start + l.SideListH
	if end > len(sessions) {
		end = len(sessions)
	}

	activeID := m.ctrl.ActiveSessionID()
	var b strings.Builder
	for i := start; i < end; i++ {
		s := sessions[i]
		prefix := "  "
		style := m.theme.SessionItem
		if s.ID == activeID {
			style = m.theme.SessionActive
		}
		if i == m.sessionSel && m.focus == focusSessions {
			prefix = "> "
			style = m.theme.SessionSel
		}
		line := truncateRunes(oneLineTUI(s.Title), max(8, l.SideW-8))
		b.WriteString(style.Render(prefix + line))
		if i != end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *MainModel) renderFileChips(l layoutInfo) string {
	files := m.ctrl.Files()
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	shown := files
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for i, f := range shown {
		b.WriteString(m.theme.FileChip.Render("⎘ " + truncateRunes(f.Filename, max(8, l.SideW-8))))
		if i != len(shown)-1 {
			b.WriteString("\n")
		}
	}
	if extra := len(files) - len(shown); extra > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.FileChip.Render(fmt.Sprintf("  +%d more", extra)))
	}
	return b.String()
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(r[:maxRunes])
	}
	return string(r[:maxRunes-1]) + "…"
}

func oneLineTUI(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
