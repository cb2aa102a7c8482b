package pipeline

import "fmt"

// State is the frame loop's position in the per-tick cycle
type State int32

const (
	// WaitingForSource means the source has no frame with a size yet
	WaitingForSource State = iota
	// Ready means a new frame is being drawn onto the canvas
	Ready
	// Detecting means landmark detection is running for the current frame
	Detecting
	// Idle means the last frame is done and the loop waits for the next one
	Idle
)

var stateNames = [...]string{"waiting_for_source", "ready", "detecting", "idle"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// transitions lists the states reachable from each state
var transitions = map[State][]State{
	WaitingForSource: {WaitingForSource, Ready, Idle},
	Ready:            {Detecting, Idle},
	Detecting:        {Idle},
	Idle:             {WaitingForSource, Ready, Idle},
}

// CanTransition reports whether the loop may move from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
