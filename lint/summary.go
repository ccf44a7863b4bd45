package lint

import (
	"fmt"

	"github.com/meysamhadeli/smartlint/detector"
)

// Notice is an informational message, e.g. a tool that is not installed.
// Notices never affect the exit code.
type Notice struct {
	Language detector.Language
	Message  string
}

// Summary accumulates the results of one run. It is created at run start,
// passed by pointer to every runner and read once by the reporter.
// Runs are sequential, so it carries no lock.
type Summary struct {
	results    []ToolResult
	failures   []ToolResult
	errorCount int
	notices    []Notice
	checked    []detector.Language
	skipped    []detector.Language
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{}
}

// Record stores a tool result. Failed results are kept with their output
// and bump the error count.
func (s *Summary) Record(r ToolResult) {
	s.results = append(s.results, r)
	if !r.Succeeded {
		s.failures = append(s.failures, r)
		s.errorCount++
	}
}

// Notice stores an informational message.
func (s *Summary) Notice(lang detector.Language, format string, args ...any) {
	s.notices = append(s.notices, Notice{Language: lang, Message: fmt.Sprintf(format, args...)})
}

// MarkChecked records that a language runner was dispatched.
func (s *Summary) MarkChecked(lang detector.Language) {
	s.checked = append(s.checked, lang)
}

// MarkSkipped records that a language was not dispatched.
func (s *Summary) MarkSkipped(lang detector.Language) {
	s.skipped = append(s.skipped, lang)
}

func (s *Summary) Results() []ToolResult { return append([]ToolResult(nil), s.results...) }

func (s *Summary) Failures() []ToolResult { return append([]ToolResult(nil), s.failures...) }

func (s *Summary) Notices() []Notice { return append([]Notice(nil), s.notices...) }

func (s *Summary) Checked() []detector.Language { return append([]detector.Language(nil), s.checked...) }

func (s *Summary) Skipped() []detector.Language { return append([]detector.Language(nil), s.skipped...) }

// ErrorCount is the number of failed tool invocations.
func (s *Summary) ErrorCount() int { return s.errorCount }

// Failed reports whether any failure was recorded.
func (s *Summary) Failed() bool { return s.errorCount > 0 }
