package cmd

import (
	"os"
	"time"

	"github.com/meysamhadeli/smartlint/constants/lipgloss"
	"github.com/pterm/pterm"
)

// spinnerProgress shows a spinner while each tool runs.
type spinnerProgress struct {
	spinner pterm.SpinnerPrinter
}

func newSpinnerProgress() *spinnerProgress {
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).WithRemoveWhenDone(true).
		WithWriter(os.Stderr)
	return &spinnerProgress{spinner: *spinner}
}

func (p *spinnerProgress) Start(label string) func(bool) {
	instance, err := p.spinner.Start(lipgloss.Gray.Render(label))
	if err != nil {
		return func(bool) {}
	}
	return func(bool) {
		_ = instance.Stop()
	}
}
