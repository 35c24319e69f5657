package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/apexmgmt/fansync/internal/roster"
)

// renderRoster draws the fan list, one line per thread, whale-first in
// the order the engine already sorted them.
func renderRoster(entries []roster.Entry, cursor, width, height int, focused bool, theme Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(entries) == 0 {
		return padPane(theme.mutedStyle().Render("no threads"), width, height)
	}

	lines := make([]string, 0, minInt(len(entries), height))
	top := 0
	if cursor >= height {
		top = cursor - height + 1
	}

	for i := top; i < len(entries) && len(lines) < height; i++ {
		entry := entries[i]

		marker := "  "
		if i == cursor {
			marker = "> "
		}

		unread := ""
		if entry.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d)", entry.UnreadCount)
		}
		muted := ""
		if entry.Muted {
			muted = " [muted]"
		}

		label := fmt.Sprintf("%s%s %s%s%s", marker, tierBadge(entry.Tier, theme), displayName(entry), unread, muted)

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Foreground))
		if i == cursor && focused {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Chrome.SelectedItem)).Bold(true)
		}
		lines = append(lines, truncate(style.Render(label), width))
	}

	return padPane(strings.Join(lines, "\n"), width, height)
}

// tierBadge renders a fixed-width tier label so names line up.
func tierBadge(tier roster.Tier, theme Theme) string {
	switch tier {
	case roster.TierWhale:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Tier.Whale)).Bold(true).Render("WHALE")
	case roster.TierSpender:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Tier.Spender)).Render("SPEND")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Tier.Free)).Render("FREE ")
	}
}

// displayName picks the best label for a fan: nickname, then display
// name, then handle, then the raw ID.
func displayName(entry roster.Entry) string {
	for _, candidate := range []string{entry.Nickname, entry.DisplayName, entry.Handle, entry.FanID} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return entry.FanID
}

func padPane(content string, width, height int) string {
	return lipgloss.NewStyle().Width(width).Height(height).Render(content)
}
