package workflow

// NewReconciliationMachine builds the reconciliation lifecycle machine at the
// given initial state.
//
// Transition table:
//
//	unmatched --ACCEPT_SUGGESTION--> matched
//	unmatched --MANUAL_MATCH-------> matched
//	matched   --MANUAL_MATCH-------> matched   (reassignment override)
//	matched   --DISPUTE------------> disputed
//	disputed  --MANUAL_MATCH-------> matched   (explicit override path)
//	disputed  --RESOLVE_DISPUTE----> matched
//
// MANUAL_MATCH is deliberately permitted from every state: an operator can
// always override the current linkage.
func NewReconciliationMachine(initial State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateUnmatched).
		Permit(TriggerAcceptSuggestion, StateMatched).
		Permit(TriggerManualMatch, StateMatched)

	builder.Configure(StateMatched).
		Permit(TriggerManualMatch, StateMatched).
		Permit(TriggerDispute, StateDisputed)

	builder.Configure(StateDisputed).
		Permit(TriggerManualMatch, StateMatched).
		Permit(TriggerResolveDispute, StateMatched)

	return builder.Build(initial)
}
