package lint

import (
	"errors"
	"fmt"

	"github.com/meysamhadeli/smartlint/detector"
)

var (
	// ErrInvalidInput indicates a nil context, project or summary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoToolchain indicates a language without a registered toolchain.
	ErrNoToolchain = errors.New("no toolchain registered")
)

// ToolStartError is recorded as a tool failure when an available tool could
// not be started at all, e.g. it vanished from PATH mid-run.
type ToolStartError struct {
	Language detector.Language
	Tool     string
	Err      error
}

func (e *ToolStartError) Error() string {
	return fmt.Sprintf("%s: %s could not be started: %v", e.Language, e.Tool, e.Err)
}

func (e *ToolStartError) Unwrap() error { return e.Err }
