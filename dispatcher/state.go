package dispatcher

import (
	"errors"
	"fmt"
)

// State is a stage of one run. Runs move through the states in order;
// Terminal may be reached early from any state (disabled, cooldown,
// configuration error, interruption) but no lint stage is ever skipped.
type State int

const (
	Idle State = iota
	ConfigLoaded
	TypeDetected
	ChangeSetResolved
	Dispatching
	Summarized
	Terminal
)

var stateNames = [...]string{
	Idle:              "idle",
	ConfigLoaded:      "config-loaded",
	TypeDetected:      "type-detected",
	ChangeSetResolved: "changeset-resolved",
	Dispatching:       "dispatching",
	Summarized:        "summarized",
	Terminal:          "terminal",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ErrIllegalTransition is returned when a run tries to skip a stage.
var ErrIllegalTransition = errors.New("illegal state transition")

// machine records the path a run took.
type machine struct {
	current State
	path    []State
}

func newMachine() *machine {
	return &machine{current: Idle, path: []State{Idle}}
}

func (m *machine) advance(next State) error {
	if m.current == Terminal || next != m.current+1 {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, next)
	}
	m.current = next
	m.path = append(m.path, next)
	return nil
}

func (m *machine) terminate() {
	if m.current == Terminal {
		return
	}
	m.current = Terminal
	m.path = append(m.path, Terminal)
}
