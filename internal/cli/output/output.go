// Package output renders command results for humans and machines.
//
// A Renderer writes in one of three concrete modes: styled text for a
// terminal, markdown for pipes and agents, or JSON. ModeAuto resolves to text
// on a TTY and to markdown otherwise.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// OutputMode selects the output format.
type OutputMode string //nolint:revive

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// DefaultWidth is the terminal width assumed when it cannot be measured.
const DefaultWidth = 100

// Mode parses a mode name. Unknown and empty names select ModeAuto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeMarkdown, ModeJSON:
		return m
	case "md":
		return ModeMarkdown
	default:
		return ModeAuto
	}
}

// Renderer writes formatted output to a pair of writers.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   OutputMode
	width  int
	styles *Styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme selects the style theme.
func WithTheme(theme string) Option {
	return func(r *Renderer) {
		r.styles = NewStyles(r.lipglossRenderer(), theme)
	}
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode, opts ...Option) *Renderer {
	isTTY := false
	width := DefaultWidth
	if f, ok := out.(*os.File); ok {
		fd := int(f.Fd()) //nolint:gosec
		isTTY = term.IsTerminal(fd)
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	r := newRenderer(out, errOut, isTTY, mode, opts)
	r.width = width
	return r
}

// NewRendererWithTTY creates a renderer with an explicit TTY state. Tests use
// it to exercise both sides of ModeAuto.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode, opts ...Option) *Renderer {
	return newRenderer(out, errOut, isTTY, mode, opts)
}

func newRenderer(out, errOut io.Writer, isTTY bool, mode OutputMode, opts []Option) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	r := &Renderer{out: out, errOut: errOut, isTTY: isTTY, mode: mode, width: DefaultWidth}
	r.styles = NewStyles(r.lipglossRenderer(), ThemeDefault)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) lipglossRenderer() *lipgloss.Renderer {
	lr := lipgloss.NewRenderer(r.out)
	lr.SetColorProfile(colorProfile(r.isTTY, r.EffectiveMode()))
	return lr
}

// Mode returns the configured mode, possibly ModeAuto.
func (r *Renderer) Mode() OutputMode { return r.mode }

// EffectiveMode resolves ModeAuto against the TTY state.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether the output writer is a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Width is the terminal width, or DefaultWidth.
func (r *Renderer) Width() int { return r.width }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the text-mode styles. Outside a colored terminal they
// render plain text.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to standard output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() != ModeText {
		r.Println(FormatHeader(level, text))
		return
	}
	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	r.Println(style.Render(text))
}

// Muted writes secondary text.
func (r *Renderer) Muted(s string) {
	if r.EffectiveMode() != ModeText {
		r.Println("_" + s + "_")
		return
	}
	r.Println(r.styles.Muted.Render(s))
}

// Success writes a success message.
func (r *Renderer) Success(s string) {
	r.Println(r.styles.Success.Render("✓ " + s))
}

// Warning writes a warning to the error writer.
func (r *Renderer) Warning(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+s))
}

// Error writes an error message to the error writer.
func (r *Renderer) Error(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+s))
}

// StatusLine writes "name  status  detail" with the status colored by kind:
// success, warning, error or anything else for muted.
func (r *Renderer) StatusLine(name, status, detail string) {
	if r.EffectiveMode() != ModeText {
		line := fmt.Sprintf("- **%s** %s", name, status)
		if detail != "" {
			line += " (" + detail + ")"
		}
		r.Println(line)
		return
	}
	var style lipgloss.Style
	switch status {
	case "success":
		style = r.styles.Success
	case "warning":
		style = r.styles.Warning
	case "error":
		style = r.styles.Error
	default:
		style = r.styles.Muted
	}
	line := fmt.Sprintf("  %s  %s", style.Render(status), name)
	if detail != "" {
		line += "  " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	level = min(max(level, 1), 6)
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a bold markdown key followed by its value.
func FormatKeyValue(key, value string) string {
	return "**" + key + ":** " + value
}

// Truncate shortens s to at most width terminal cells, ending with an
// ellipsis when cut. Wide runes count as two cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Pad right-pads s with spaces to width terminal cells.
func Pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
