package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// composeModel is a single-line rune editor for the outgoing message.
type composeModel struct {
	runes  []rune
	cursor int
}

func (c *composeModel) Value() string {
	return string(c.runes)
}

func (c *composeModel) reset() {
	c.runes = nil
	c.cursor = 0
}

func (c *composeModel) handleKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyRunes:
		c.insert(msg.Runes)
	case tea.KeySpace:
		c.insert([]rune{' '})
	case tea.KeyBackspace:
		if c.cursor > 0 {
			c.runes = append(c.runes[:c.cursor-1], c.runes[c.cursor:]...)
			c.cursor--
		}
	case tea.KeyDelete:
		if c.cursor < len(c.runes) {
			c.runes = append(c.runes[:c.cursor], c.runes[c.cursor+1:]...)
		}
	case tea.KeyLeft:
		if c.cursor > 0 {
			c.cursor--
		}
	case tea.KeyRight:
		if c.cursor < len(c.runes) {
			c.cursor++
		}
	case tea.KeyHome:
		c.cursor = 0
	case tea.KeyEnd:
		c.cursor = len(c.runes)
	case tea.KeyCtrlU:
		c.reset()
	}
}

func (c *composeModel) insert(runes []rune) {
	if len(runes) == 0 {
		return
	}
	out := make([]rune, 0, len(c.runes)+len(runes))
	out = append(out, c.runes[:c.cursor]...)
	out = append(out, runes...)
	out = append(out, c.runes[c.cursor:]...)
	c.runes = out
	c.cursor += len(runes)
}

func (c *composeModel) view(width int, focused bool, theme Theme) string {
	prompt := "> "
	promptStyle := theme.mutedStyle()
	if focused {
		promptStyle = theme.accentStyle().Bold(true)
	}

	text := string(c.runes)
	if focused {
		// Block cursor at the insertion point.
		var b strings.Builder
		b.WriteString(string(c.runes[:c.cursor]))
		b.WriteString(lipgloss.NewStyle().Reverse(true).Render(cursorCell(c.runes, c.cursor)))
		if c.cursor < len(c.runes) {
			b.WriteString(string(c.runes[c.cursor+1:]))
		}
		text = b.String()
	}

	return truncate(promptStyle.Render(prompt)+text, width)
}

func cursorCell(runes []rune, cursor int) string {
	if cursor < len(runes) {
		return string(runes[cursor])
	}
	return " "
}
