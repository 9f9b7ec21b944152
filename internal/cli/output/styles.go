package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles are the lipgloss styles used by text-mode output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	// Selected marks selected rows in the terminal browser.
	Selected lipgloss.Style
}

// Themes known to NewStyles.
const (
	ThemeDefault    = "default"
	ThemeMonochrome = "monochrome"
)

// NewStyles builds styles bound to lr. The monochrome theme drops colors but
// keeps weight.
func NewStyles(lr *lipgloss.Renderer, theme string) *Styles {
	s := &Styles{
		Header1:  lr.NewStyle().Bold(true).Underline(true),
		Header2:  lr.NewStyle().Bold(true),
		Bold:     lr.NewStyle().Bold(true),
		Muted:    lr.NewStyle().Faint(true),
		Info:     lr.NewStyle(),
		Success:  lr.NewStyle(),
		Warning:  lr.NewStyle(),
		Error:    lr.NewStyle().Bold(true),
		Selected: lr.NewStyle().Reverse(true),
	}
	if theme == ThemeMonochrome {
		return s
	}
	s.Header1 = s.Header1.Foreground(lipgloss.Color("12"))
	s.Header2 = s.Header2.Foreground(lipgloss.Color("14"))
	s.Muted = s.Muted.Foreground(lipgloss.Color("8"))
	s.Info = s.Info.Foreground(lipgloss.Color("12"))
	s.Success = s.Success.Foreground(lipgloss.Color("10"))
	s.Warning = s.Warning.Foreground(lipgloss.Color("11"))
	s.Error = s.Error.Foreground(lipgloss.Color("9"))
	return s
}

// colorProfile picks the termenv profile for a writer: plain ASCII unless
// the writer is a terminal and the renderer is in text mode.
func colorProfile(isTTY bool, mode OutputMode) termenv.Profile {
	if !isTTY || mode != ModeText {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
