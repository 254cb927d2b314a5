// Package cycle is the request cycle state machine of one browser session.
//
//	idle ──initiate──▶ awaiting_wallet ──token_received──▶ awaiting_verification
//	                        ▲   │                                │   │   │
//	                        │   └─wallet_failed─▶ failed ◀─verification_failed
//	                        └──────definition_mismatch───────────┘   │
//	complete ◀──────────────claims_published─────────────────────────┘
//
// initiate is accepted from every state. A late wallet response may arrive
// after the cycle completed, so token_received is accepted from complete too.
package cycle

import (
	"fmt"

	dErrors "vaultflow/pkg/domain-errors"
)

type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingWallet       State = "awaiting_wallet"
	StateAwaitingVerification State = "awaiting_verification"
	StateComplete             State = "complete"
	StateFailed               State = "failed"
)

type Event string

const (
	EventInitiate           Event = "initiate"
	EventWalletFailed       Event = "wallet_failed"
	EventTokenReceived      Event = "token_received"
	EventDefinitionMismatch Event = "definition_mismatch"
	EventVerificationFailed Event = "verification_failed"
	EventClaimsPublished    Event = "claims_published"
)

var transitions = map[Event]struct {
	from []State
	to   State
}{
	EventInitiate: {
		from: []State{StateIdle, StateAwaitingWallet, StateAwaitingVerification, StateComplete, StateFailed},
		to:   StateAwaitingWallet,
	},
	EventWalletFailed:       {from: []State{StateAwaitingWallet}, to: StateFailed},
	EventTokenReceived:      {from: []State{StateAwaitingWallet, StateComplete}, to: StateAwaitingVerification},
	EventDefinitionMismatch: {from: []State{StateAwaitingVerification}, to: StateAwaitingWallet},
	EventVerificationFailed: {from: []State{StateAwaitingVerification}, to: StateFailed},
	EventClaimsPublished:    {from: []State{StateAwaitingVerification}, to: StateComplete},
}

// Transition returns the state reached by applying event in state from.
func Transition(from State, event Event) (State, error) {
	t, ok := transitions[event]
	if !ok {
		return from, dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("unknown event %q", event))
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return from, dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("cannot %s while %s", event, from))
}

// CanAccept reports whether a wallet response may be delivered in state s.
func CanAccept(s State) bool {
	_, err := Transition(s, EventTokenReceived)
	return err == nil
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateAwaitingWallet, StateAwaitingVerification, StateComplete, StateFailed:
		return true
	}
	return false
}

// States lists every state in declaration order.
func States() []State {
	return []State{StateIdle, StateAwaitingWallet, StateAwaitingVerification, StateComplete, StateFailed}
}

// Events lists every event in declaration order.
func Events() []Event {
	return []Event{
		EventInitiate,
		EventWalletFailed,
		EventTokenReceived,
		EventDefinitionMismatch,
		EventVerificationFailed,
		EventClaimsPublished,
	}
}
