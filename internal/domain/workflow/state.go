package workflow

// State represents a lifecycle state of a reconciliation record
type State string

const (
	StateUnmatched State = "unmatched"
	StateMatched   State = "matched"
	StateDisputed  State = "disputed"
)

var validStates = map[State]bool{
	StateUnmatched: true,
	StateMatched:   true,
	StateDisputed:  true,
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal always returns false: the reconciliation lifecycle has no
// terminal state, a disputed record always returns to matched.
func (s State) IsTerminal() bool {
	return false
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
