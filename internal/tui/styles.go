package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette shared by the progress view and the rendered reports.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("240")
	ColorHighlight = lipgloss.Color("229")
	ColorOK        = lipgloss.Color("42")
	ColorWarn      = lipgloss.Color("214")
	ColorError     = lipgloss.Color("196")
)

// OutputMode selects how progress is presented.
type OutputMode int

const (
	// OutputModePlain writes log lines only; used for pipes and CI.
	OutputModePlain OutputMode = iota
	// OutputModeStyled renders lipgloss reports without the live view.
	OutputModeStyled
	// OutputModeInteractive runs the Bubble Tea progress view.
	OutputModeInteractive
)

// DetectOutputMode picks a mode for the terminal behind fd. NO_COLOR and
// TERM=dumb downgrade to plain output; plain forces it.
func DetectOutputMode(fd uintptr, plain bool) OutputMode {
	if plain || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return OutputModePlain
	}
	if !term.IsTerminal(int(fd)) { //nolint:gosec // file descriptors fit in int
		return OutputModePlain
	}
	if os.Getenv("CI") != "" {
		return OutputModeStyled
	}
	return OutputModeInteractive
}

// TerminalWidth returns the width of the terminal behind fd, or fallback.
func TerminalWidth(fd uintptr, fallback int) int {
	w, _, err := term.GetSize(int(fd)) //nolint:gosec // file descriptors fit in int
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
