// Package term provides color state, terminal detection and the lipgloss
// styles shared by logging and display.
//
// [Configure] resolves the color mode once during startup. When colors are
// disabled the renderer uses the Ascii profile, so every style renders as
// plain text and callers never branch on color themselves.
package term

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/backmassage/stillmux/internal/config"
)

// Palette (ANSI 256 indices).
const (
	ColorRed     = lipgloss.Color("9")
	ColorGreen   = lipgloss.Color("10")
	ColorYellow  = lipgloss.Color("11")
	ColorBlue    = lipgloss.Color("12")
	ColorMagenta = lipgloss.Color("13")
	ColorCyan    = lipgloss.Color("14")
	ColorGray    = lipgloss.Color("245")
)

var (
	renderer = lipgloss.NewRenderer(os.Stdout)
	enabled  bool
	levels   map[string]lipgloss.Style
)

func init() {
	setEnabled(false)
}

// Configure resolves the color mode and applies it to the shared renderer.
// Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) {
	setEnabled(resolve(mode))
}

func setEnabled(on bool) {
	enabled = on
	if on {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	levels = map[string]lipgloss.Style{
		"INFO":    renderer.NewStyle().Bold(true).Foreground(ColorBlue),
		"SUCCESS": renderer.NewStyle().Bold(true).Foreground(ColorGreen),
		"WARN":    renderer.NewStyle().Bold(true).Foreground(ColorYellow),
		"ERROR":   renderer.NewStyle().Bold(true).Foreground(ColorRed),
		"RENDER":  renderer.NewStyle().Bold(true).Foreground(ColorMagenta),
		"DEBUG":   renderer.NewStyle().Bold(true).Foreground(ColorCyan),
	}
}

// Enabled reports whether colors are currently active.
func Enabled() bool { return enabled }

// NewStyle returns a style bound to the shared renderer, so it honours the
// resolved color mode.
func NewStyle() lipgloss.Style { return renderer.NewStyle() }

// Level renders "[LEVEL]" in the level's color.
func Level(level string) string {
	tag := "[" + level + "]"
	if s, ok := levels[level]; ok && enabled {
		return s.Render(tag)
	}
	return tag
}

// Paint renders s in color c (plain when colors are disabled).
func Paint(c lipgloss.Color, s string) string {
	if !enabled {
		return s
	}
	return renderer.NewStyle().Foreground(c).Render(s)
}

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
