package report

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors the console uses.
type Theme struct {
	Name string

	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Dim       lipgloss.Color
}

// DarkTheme is the default theme.
var DarkTheme = Theme{
	Name:      "dark",
	Accent:    lipgloss.Color("#f97316"),
	Success:   lipgloss.Color("#22c55e"),
	Warning:   lipgloss.Color("#eab308"),
	Error:     lipgloss.Color("#ef4444"),
	Primary:   lipgloss.Color("#e0e0e8"),
	Secondary: lipgloss.Color("#888888"),
	Dim:       lipgloss.Color("#5a5a70"),
}

// LightTheme suits terminals with a light background.
var LightTheme = Theme{
	Name:      "light",
	Accent:    lipgloss.Color("#c2410c"),
	Success:   lipgloss.Color("#15803d"),
	Warning:   lipgloss.Color("#a16207"),
	Error:     lipgloss.Color("#b91c1c"),
	Primary:   lipgloss.Color("#0f172a"),
	Secondary: lipgloss.Color("#374151"),
	Dim:       lipgloss.Color("#4b5563"),
}

// DetectTheme picks a theme from the flag value, then RUNPIPE_THEME, then the
// COLORFGBG hint some terminals export. Dark is the default.
func DetectTheme(flagVal string) Theme {
	if t, ok := themeByName(flagVal); ok {
		return t
	}
	if t, ok := themeByName(os.Getenv("RUNPIPE_THEME")); ok {
		return t
	}
	// COLORFGBG is "fg;bg"; 7 and 15 are light backgrounds.
	if v := os.Getenv("COLORFGBG"); v != "" {
		parts := strings.Split(v, ";")
		if bg := parts[len(parts)-1]; len(parts) >= 2 && (bg == "7" || bg == "15") {
			return LightTheme
		}
	}
	return DarkTheme
}

func themeByName(name string) (Theme, bool) {
	switch strings.ToLower(name) {
	case "dark":
		return DarkTheme, true
	case "light":
		return LightTheme, true
	}
	return Theme{}, false
}

// styles are the lipgloss styles derived from a Theme.
type styles struct {
	title   lipgloss.Style
	stage   lipgloss.Style
	step    lipgloss.Style
	output  lipgloss.Style
	stderr  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// newStyles builds styles bound to r. Without color every style is plain so
// the transcript carries no escape sequences at all.
func newStyles(r *lipgloss.Renderer, t Theme, color bool) styles {
	if !color {
		plain := r.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title:   r.NewStyle().Foreground(t.Accent).Bold(true),
		stage:   r.NewStyle().Foreground(t.Primary).Bold(true),
		step:    r.NewStyle().Foreground(t.Secondary),
		output:  r.NewStyle().Foreground(t.Primary),
		stderr:  r.NewStyle().Foreground(t.Warning),
		success: r.NewStyle().Foreground(t.Success),
		warning: r.NewStyle().Foreground(t.Warning),
		failure: r.NewStyle().Foreground(t.Error).Bold(true),
		dim:     r.NewStyle().Foreground(t.Dim),
	}
}
