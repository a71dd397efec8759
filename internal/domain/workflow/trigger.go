package workflow

// Trigger represents an operator action that can cause a state transition
type Trigger string

const (
	TriggerAcceptSuggestion Trigger = "ACCEPT_SUGGESTION"
	TriggerManualMatch      Trigger = "MANUAL_MATCH"
	TriggerDispute          Trigger = "DISPUTE"
	TriggerResolveDispute   Trigger = "RESOLVE_DISPUTE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
