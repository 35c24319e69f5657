// Package tui is the operator console: a roster pane on the left, the
// active conversation on the right, and a compose line at the bottom.
// All mutation goes through the engine; the console only renders engine
// state and re-reads it when a change event arrives.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apexmgmt/fansync/internal/engine"
	"github.com/apexmgmt/fansync/internal/events"
	"github.com/apexmgmt/fansync/internal/outbox"
	"github.com/apexmgmt/fansync/internal/platform"
	"github.com/apexmgmt/fansync/internal/roster"
)

const eventSubscriptionID = "console"

type Config struct {
	Engine         *engine.Engine
	CreatorID      string
	Theme          string
	ShowTimestamps bool
}

type focusArea int

const (
	focusRoster focusArea = iota
	focusCompose
)

// engineEventMsg carries one engine change event into the tea loop.
type engineEventMsg struct {
	event events.Event
}

type Model struct {
	eng            *engine.Engine
	creatorID      string
	theme          Theme
	showTimestamps bool

	width    int
	height   int
	focus    focusArea
	cursor   int
	showHelp bool
	status   string

	entries   []roster.Entry
	rosterErr error
	msgs      []platform.Message
	msgErr    error

	compose composeModel
}

func NewModel(cfg Config) (*Model, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if strings.TrimSpace(cfg.CreatorID) == "" {
		return nil, fmt.Errorf("creator id is required")
	}
	themeName := strings.TrimSpace(cfg.Theme)
	if themeName == "" {
		themeName = DefaultTheme.Name
	}
	theme, ok := Themes[themeName]
	if !ok {
		return nil, fmt.Errorf("invalid theme %q", themeName)
	}

	return &Model{
		eng:            cfg.Engine,
		creatorID:      cfg.CreatorID,
		theme:          theme,
		showTimestamps: cfg.ShowTimestamps,
	}, nil
}

// Run selects the creator, bridges engine events into the program, and
// blocks until the operator quits.
func Run(cfg Config) error {
	model, err := NewModel(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Engine.SelectCreator(cfg.CreatorID); err != nil {
		return fmt.Errorf("select creator: %w", err)
	}

	program := tea.NewProgram(model, tea.WithAltScreen())

	err = cfg.Engine.Events().Subscribe(eventSubscriptionID, events.Filter{}, func(ev events.Event) {
		program.Send(engineEventMsg{event: ev})
	})
	if err != nil {
		return fmt.Errorf("subscribe to engine events: %w", err)
	}
	defer func() {
		_ = cfg.Engine.Events().Unsubscribe(eventSubscriptionID)
	}()

	_, err = program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case engineEventMsg:
		m.reload()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(typed)
	}
	return m, nil
}

// reload re-reads all rendered engine state.
func (m *Model) reload() {
	m.entries, m.rosterErr = m.eng.Roster()
	if m.cursor >= len(m.entries) {
		m.cursor = maxInt(0, len(m.entries)-1)
	}
	m.msgs, m.msgErr = m.eng.Messages()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.status = ""

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "tab":
		m.toggleFocus()
		return nil
	case "?":
		m.showHelp = !m.showHelp
		return nil
	}

	if m.focus == focusCompose {
		return m.handleComposeKey(msg)
	}
	return m.handleRosterKey(msg)
}

func (m *Model) handleRosterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.entries) {
			fanID := m.entries[m.cursor].FanID
			if err := m.eng.SelectFan(fanID); err != nil {
				m.status = err.Error()
				return nil
			}
			m.reload()
			m.focus = focusCompose
		}
	case "esc":
		m.eng.ClearFan()
		m.reload()
	case "R":
		m.eng.RefreshRoster()
	case "g":
		m.eng.RefreshMessages()
	case "o":
		m.loadOlder()
	case "r":
		m.retryNewestFailed()
	case "x":
		m.discardNewestFailed()
	}
	return nil
}

func (m *Model) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.focus = focusRoster
		return nil
	case "enter":
		m.submitCompose()
		return nil
	}
	m.compose.handleKey(msg)
	return nil
}

func (m *Model) toggleFocus() {
	if m.focus == focusRoster && m.eng.Selection().HasConversation() {
		m.focus = focusCompose
		return
	}
	m.focus = focusRoster
}

func (m *Model) submitCompose() {
	text := strings.TrimSpace(m.compose.Value())
	if text == "" {
		return
	}
	if _, err := m.eng.Send(outbox.Text(text)); err != nil {
		m.status = err.Error()
		return
	}
	m.compose.reset()
	m.reload()
}

func (m *Model) loadOlder() {
	more, err := m.eng.LoadOlderMessages()
	switch {
	case err != nil:
		m.status = err.Error()
	case !more:
		m.status = "start of history"
	default:
		m.reload()
	}
}

// retryNewestFailed re-dispatches the most recent failed send.
func (m *Model) retryNewestFailed() {
	tempID, ok := m.newestFailed()
	if !ok {
		m.status = "nothing to retry"
		return
	}
	if err := m.eng.RetryFailed(tempID); err != nil {
		m.status = err.Error()
		return
	}
	m.reload()
}

func (m *Model) discardNewestFailed() {
	tempID, ok := m.newestFailed()
	if !ok {
		m.status = "nothing to discard"
		return
	}
	if m.eng.DiscardFailed(tempID) {
		m.reload()
	}
}

func (m *Model) newestFailed() (string, bool) {
	for i := len(m.msgs) - 1; i >= 0; i-- {
		if m.msgs[i].Status == platform.StatusFailed {
			return m.msgs[i].TempID, true
		}
	}
	return "", false
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	composeLine := m.compose.view(m.width, m.focus == focusCompose, m.theme)

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - lipgloss.Height(composeLine)
	if bodyHeight < 0 {
		bodyHeight = 0
	}

	rosterWidth := clampInt(m.width/3, 24, 44)
	threadWidth := maxInt(0, m.width-rosterWidth-1)

	rosterPane := renderRoster(m.entries, m.cursor, rosterWidth, bodyHeight, m.focus == focusRoster, m.theme)
	threadPane := renderThread(m.msgs, threadWidth, bodyHeight, m.showTimestamps, m.msgErr, m.theme)
	body := lipgloss.JoinHorizontal(lipgloss.Top, rosterPane, " ", threadPane)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, composeLine, footer)
}

func (m *Model) renderHeader() string {
	snap := m.eng.Selection()

	left := fmt.Sprintf("fansync  %s", snap.CreatorID)
	if snap.FanID != "" {
		left += "  >  " + m.fanLabel(snap.FanID)
	}

	var flags []string
	if m.rosterErr != nil {
		flags = append(flags, "roster stale")
	}
	if m.msgErr != nil {
		flags = append(flags, "messages stale")
	}

	line := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Render(left)
	if len(flags) > 0 {
		line += "  " + m.theme.errorStyle().Render("! "+strings.Join(flags, ", "))
	}
	return truncate(line, m.width)
}

func (m *Model) renderFooter() string {
	if m.status != "" {
		return truncate(m.theme.errorStyle().Render(m.status), m.width)
	}
	hints := "enter open  tab compose  o older  r retry  x discard  R/g refresh  ? help  q quit"
	return truncate(lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Chrome.Footer)).Render(hints), m.width)
}

func (m *Model) renderHelp() string {
	lines := []string{
		"fansync console",
		"",
		"roster",
		"  j/k, up/down   move",
		"  enter          open conversation",
		"  esc            close conversation",
		"  R              refresh roster now",
		"",
		"conversation",
		"  tab            focus compose / roster",
		"  g              refresh messages now",
		"  o              load older messages",
		"  r              retry newest failed send",
		"  x              discard newest failed send",
		"",
		"compose",
		"  enter          send",
		"  esc            back to roster",
		"",
		"press ? to close help, q to quit",
	}
	return m.theme.mutedStyle().Render(strings.Join(lines, "\n"))
}

func (m *Model) fanLabel(fanID string) string {
	for _, entry := range m.entries {
		if entry.FanID == fanID {
			return displayName(entry)
		}
	}
	return fanID
}

// truncate clips a rendered line to the given visible width.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
