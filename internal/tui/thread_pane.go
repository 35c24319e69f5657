package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/apexmgmt/fansync/internal/platform"
)

// renderThread draws the active conversation, oldest at the top. When
// the transcript is taller than the pane the newest lines win.
func renderThread(msgs []platform.Message, width, height int, showTimestamps bool, pollErr error, theme Theme) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(msgs) == 0 {
		label := "no conversation selected"
		if pollErr != nil {
			label = "no messages yet (last refresh failed)"
		}
		return padPane(theme.mutedStyle().Render(label), width, height)
	}

	var lines []string
	for _, msg := range msgs {
		lines = append(lines, renderMessage(msg, width, showTimestamps, theme)...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return padPane(strings.Join(lines, "\n"), width, height)
}

func renderMessage(msg platform.Message, width int, showTimestamps bool, theme Theme) []string {
	header := messageHeader(msg, showTimestamps, theme)
	lines := []string{truncate(header, width)}

	bodyWidth := maxInt(10, width-2)
	body := wordwrap.String(msg.Text, bodyWidth)
	bodyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Base.Foreground))
	if msg.Status == platform.StatusFailed {
		bodyStyle = bodyStyle.Faint(true)
	}
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, truncate("  "+bodyStyle.Render(line), width))
	}

	if len(msg.MediaRefs) > 0 {
		media := fmt.Sprintf("  media: %s", strings.Join(msg.MediaRefs, ", "))
		if msg.Price > 0 {
			media += fmt.Sprintf("  unlock $%d.%02d", msg.Price/100, msg.Price%100)
		}
		lines = append(lines, truncate(theme.accentStyle().Render(media), width))
	}
	return lines
}

func messageHeader(msg platform.Message, showTimestamps bool, theme Theme) string {
	author := "fan"
	authorColor := theme.Base.Muted
	if msg.FromCreator {
		author = "you"
		authorColor = theme.Base.Accent
	}
	header := lipgloss.NewStyle().Foreground(lipgloss.Color(authorColor)).Bold(true).Render(author)

	if showTimestamps && !msg.Timestamp.IsZero() {
		header += " " + theme.mutedStyle().Render(msg.Timestamp.Format("15:04:05"))
	}
	if marker := statusMarker(msg, theme); marker != "" {
		header += " " + marker
	}
	return header
}

// statusMarker shows delivery state for the creator's own sends. A
// failed send names its error kind so the operator can judge whether a
// retry is worth it.
func statusMarker(msg platform.Message, theme Theme) string {
	if !msg.FromCreator {
		return ""
	}
	switch msg.Status {
	case platform.StatusPending:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Status.Pending)).Render("~ sending")
	case platform.StatusFailed:
		label := "x failed"
		if msg.FailureKind != "" {
			label = fmt.Sprintf("x failed (%s)", msg.FailureKind)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Status.Failed)).Bold(true).Render(label)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Status.Confirmed)).Render("ok")
	}
}
