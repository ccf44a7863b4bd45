package lint

import (
	"fmt"

	"github.com/meysamhadeli/smartlint/detector"
)

// PlannedStep is one invocation a run would make, or the reason it would
// not.
type PlannedStep struct {
	Step    Step
	Tool    string
	Command string

	// Skipped explains why nothing runs for this step, when set.
	Skipped string

	// Notes are the tools passed over on the way.
	Notes []string
}

// Plan returns what Run would invoke for group without running anything.
func (r *Runner) Plan(project *detector.Project, group FileGroup) ([]PlannedStep, error) {
	if project == nil {
		return nil, fmt.Errorf("%w: project is required", ErrInvalidInput)
	}
	tc, ok := r.registry.Get(group.Language)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoToolchain, group.Language)
	}

	var notes []string
	t, ok := r.target(project, tc, group, func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	})
	if ok {
		return []PlannedStep{
			{Step: StepFormat, Tool: t.Name, Command: displayCommand(t.Format), Notes: notes},
			{Step: StepLint, Tool: t.Name, Command: displayCommand(t.Lint)},
		}, nil
	}

	var steps []PlannedStep
	for _, step := range []Step{StepFormat, StepLint} {
		planned := PlannedStep{Step: step, Notes: notes}
		notes = nil
		c, ok := r.choose(project, tc, group, step, func(format string, args ...any) {
			planned.Notes = append(planned.Notes, fmt.Sprintf(format, args...))
		})
		if ok {
			planned.Tool = c.Tool
			planned.Command = displayCommand(c.Argv)
		} else {
			planned.Skipped = fmt.Sprintf("no %s tool available", step)
		}
		steps = append(steps, planned)
	}
	return steps, nil
}
