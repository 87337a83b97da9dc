// Package replui is the interactive stack REPL: a bubbletea program that
// exercises the value-stack API (push/pop/reposition/property/coerce/compare) from a terminal
// instead of from Go test code.
package replui

import (
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/sorenby/quarkvm/internal/qval"
)

// noColor mirrors the teacher's colorizer's escape hatch: honor NO_COLOR
// (and the project's own QUARKC_NO_COLOR) before emitting any style.
func noColor() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("QUARKC_NO_COLOR") != ""
}

var (
	styleNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleString = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	styleBool   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleObject = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	styleNil    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	styleIndex  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stylePrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

// colorKind renders s in the style associated with kind, unless colors are
// disabled.
func colorKind(kind qval.Kind, s string) string {
	if noColor() {
		return s
	}
	switch kind {
	case qval.KindNumber:
		return styleNumber.Render(s)
	case qval.KindString:
		return styleString.Render(s)
	case qval.KindBoolean:
		return styleBool.Render(s)
	case qval.KindObject:
		return styleObject.Render(s)
	default:
		return styleNil.Render(s)
	}
}

func colorError(s string) string {
	if noColor() {
		return s
	}
	return styleError.Render(s)
}

func colorIndex(s string) string {
	if noColor() {
		return s
	}
	return styleIndex.Render(s)
}

func colorPrompt(s string) string {
	if noColor() {
		return s
	}
	return stylePrompt.Render(s)
}
