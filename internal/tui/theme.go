package tui

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Foreground string
	Muted      string
	Accent     string
	Error      string
}

// TierColors defines colors for fan tier badges.
type TierColors struct {
	Whale   string
	Spender string
	Free    string
}

// StatusColors defines colors for send delivery state.
type StatusColors struct {
	Confirmed string
	Pending   string
	Failed    string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
}

// Theme defines the console's style tokens.
type Theme struct {
	Name string

	Base   BaseColors
	Tier   TierColors
	Status StatusColors
	Chrome ChromeColors
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Error:      "203",
	},
	Tier: TierColors{
		Whale:   "220",
		Spender: "75",
		Free:    "245",
	},
	Status: StatusColors{
		Confirmed: "41",
		Pending:   "220",
		Failed:    "203",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
	},
}

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Error:      "196",
	},
	Tier: TierColors{
		Whale:   "226",
		Spender: "87",
		Free:    "250",
	},
	Status: StatusColors{
		Confirmed: "46",
		Pending:   "226",
		Failed:    "196",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "51",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

func (t Theme) mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Error)).Bold(true)
}
