package utils

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// DefaultTheme is the chroma style used for highlighted output blocks.
const DefaultTheme = "dracula"

// LooksLikeDiff reports whether output resembles a unified diff, as printed
// by `gofmt -d`, `ruff format --diff` or `cargo fmt --check`.
func LooksLikeDiff(output string) bool {
	var minus, plus, hunk bool
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "--- "):
			minus = true
		case strings.HasPrefix(line, "+++ "):
			plus = true
		case strings.HasPrefix(line, "@@ "):
			hunk = true
		}
	}
	return minus && plus && hunk
}

// RenderOutputBlock writes a captured tool output block to w. Diff-looking
// blocks are highlighted when color is enabled; everything else is written
// verbatim with a trailing newline.
func RenderOutputBlock(w io.Writer, output string, color bool, theme string) error {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return nil
	}

	if color && LooksLikeDiff(output) {
		if theme == "" {
			theme = DefaultTheme
		}
		// Use a buffer to capture the highlight output
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, output+"\n", "diff", "terminal256", theme); err == nil {
			_, err = io.Copy(w, &buf)
			return err
		}
	}

	_, err := fmt.Fprintln(w, output)
	return err
}
