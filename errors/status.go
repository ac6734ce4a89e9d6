package errors

import "fmt"

// Success is the status of an invocation that returned no error.
const Success uint64 = 0

// StatusCustomBase is or-ed with a program-defined code to form its status.
const StatusCustomBase uint64 = 1 << 32

var statusByKind = map[Kind]uint64{
	KindBorrowConflict:        1,
	KindInvalidAccountData:    2,
	KindInvalidArgument:       3,
	KindInvalidInstruction:    4,
	KindMissingSignature:      5,
	KindAlreadyInitialized:    6,
	KindUninitialized:         7,
	KindNotEnoughAccounts:     8,
	KindDataTooSmall:          9,
	KindInsufficientFunds:     10,
	KindIncorrectProgramID:    11,
	KindNotRentExempt:         12,
	KindInvalidSeeds:          13,
	KindMaxSeedLengthExceeded: 14,
	KindIllegalOwner:          15,
	KindArithmeticOverflow:    16,
	KindImmutable:             17,
	KindIncorrectAuthority:    18,
}

var kindByStatus = func() map[uint64]Kind {
	m := make(map[uint64]Kind, len(statusByKind))
	for k, v := range statusByKind {
		m[v] = k
	}
	return m
}()

// Status maps err to the numeric status reported across the host boundary.
// Kinds without a dedicated code report as invalid argument.
func Status(err error) uint64 {
	if err == nil {
		return Success
	}
	var e *Error
	if !As(err, &e) {
		return statusByKind[KindInvalidArgument]
	}
	switch e.Kind {
	case KindCustom:
		return StatusCustomBase | uint64(e.Code)
	case KindInvokeFailed:
		// Propagate the callee's status unchanged.
		if code, ok := e.Value.(uint64); ok && code != Success {
			return code
		}
	}
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return statusByKind[KindInvalidArgument]
}

// FromStatus rebuilds an error from a numeric status. It returns nil for
// Success.
func FromStatus(status uint64) *Error {
	if status == Success {
		return nil
	}
	if status&StatusCustomBase != 0 && status>>32 == 1 {
		e := Custom(uint32(status))
		e.Phase = ""
		return e
	}
	if kind, ok := kindByStatus[status]; ok {
		return &Error{Kind: kind}
	}
	return &Error{
		Kind:   KindInvokeFailed,
		Detail: fmt.Sprintf("unknown status 0x%x", status),
		Value:  status,
	}
}

// Class groups kinds by the kind of fault they describe.
type Class string

const (
	ClassEncoding   Class = "encoding"
	ClassValidation Class = "validation"
	ClassResource   Class = "resource"
	ClassArithmetic Class = "arithmetic"
)

// Class returns the taxonomy bucket for k.
func (k Kind) Class() Class {
	switch k {
	case KindInvalidAccountData, KindInvalidInstruction, KindInvalidInput:
		return ClassEncoding
	case KindBorrowConflict, KindNotEnoughAccounts, KindAllocation, KindOutOfBounds,
		KindNotFound, KindBudgetExceeded, KindCallDepth, KindInsufficientFunds:
		return ClassResource
	case KindArithmeticOverflow:
		return ClassArithmetic
	default:
		return ClassValidation
	}
}
