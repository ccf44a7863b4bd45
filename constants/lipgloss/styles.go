package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87D7FF")).Bold(true)
	Heading = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF875F")).Bold(true).Underline(true)
)

// Disable replaces every style with a plain one so output carries no ANSI
// escapes. Used for --no-color and when stderr is not a terminal.
func Disable() {
	plain := lipgloss.NewStyle()
	Red, Green, Yellow, BlueSky, Gray, Info, Heading = plain, plain, plain, plain, plain, plain, plain
}
