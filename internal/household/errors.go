package household

import (
	"errors"
	"fmt"

	"github.com/dukerupert/hearth/internal/store"
)

// Kind classifies an operation failure. Every precondition failure maps
// to exactly one kind; operations never return a generic error for a
// rule violation.
type Kind int

const (
	// KindValidation: malformed or contradictory input.
	KindValidation Kind = iota + 1
	// KindNotFound: a referenced household, user, membership, or
	// invitation does not exist.
	KindNotFound
	// KindPermission: the actor's role fails a policy check.
	KindPermission
	// KindConflict: a uniqueness invariant would be violated.
	KindConflict
	// KindResourceState: the operation is invalid in the current
	// lifecycle state.
	KindResourceState
	// KindBusinessRule: a domain rule not reducible to the other kinds.
	KindBusinessRule
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "insufficient_permission"
	case KindConflict:
		return "conflict"
	case KindResourceState:
		return "resource_state"
	case KindBusinessRule:
		return "business_rule_violation"
	}
	return "unknown"
}

// Error is a classified operation failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// classifyStore maps persistence failures that escaped the store's
// single transparent retry onto the failure taxonomy. A write that
// still could not take the lock is a Conflict; anything else passes
// through unclassified for the transport layer to treat as internal.
func classifyStore(err error) error {
	if err == nil {
		return nil
	}
	if store.IsBusy(err) {
		return errf(KindConflict, "a concurrent change is in progress; try again")
	}
	return err
}

// KindOf returns the Kind carried by err, or 0 if err is not a
// classified failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
