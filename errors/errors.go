package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // input buffer parsing
	PhaseBorrow   Phase = "borrow"   // guard acquisition
	PhaseAccount  Phase = "account"  // account mutation helpers
	PhaseInvoke   Phase = "invoke"   // cross-program invocation marshaling
	PhaseAddress  Phase = "address"  // derived address computation
	PhaseAlloc    Phase = "alloc"    // heap allocation
	PhaseProgram  Phase = "program"  // errors returned by program logic
	PhaseRuntime  Phase = "runtime"  // execution frames and write-back
	PhaseLoad     Phase = "load"     // program loading
	PhaseHost     Phase = "host"     // host function registration and calls
	PhaseValidate Phase = "validate" // configuration and input validation
)

// Kind categorizes the error
type Kind string

// Kinds reported to callers through a numeric status. Order matches the
// status table in status.go.
const (
	KindBorrowConflict        Kind = "borrow_conflict"
	KindInvalidAccountData    Kind = "invalid_account_data"
	KindInvalidArgument       Kind = "invalid_argument"
	KindInvalidInstruction    Kind = "invalid_instruction_data"
	KindMissingSignature      Kind = "missing_required_signature"
	KindAlreadyInitialized    Kind = "account_already_initialized"
	KindUninitialized         Kind = "uninitialized_account"
	KindNotEnoughAccounts     Kind = "not_enough_account_keys"
	KindDataTooSmall          Kind = "account_data_too_small"
	KindInsufficientFunds     Kind = "insufficient_funds"
	KindIncorrectProgramID    Kind = "incorrect_program_id"
	KindNotRentExempt         Kind = "account_not_rent_exempt"
	KindInvalidSeeds          Kind = "invalid_seeds"
	KindMaxSeedLengthExceeded Kind = "max_seed_length_exceeded"
	KindIllegalOwner          Kind = "illegal_owner"
	KindArithmeticOverflow    Kind = "arithmetic_overflow"
	KindImmutable             Kind = "immutable"
	KindIncorrectAuthority    Kind = "incorrect_authority"
)

// Kinds raised inside the runtime. They surface as KindInvalidArgument or
// the generic invoke failure when crossing the numeric boundary.
const (
	KindCustom         Kind = "custom"
	KindInvokeFailed   Kind = "invoke_failed"
	KindAllocation     Kind = "allocation"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindBudgetExceeded Kind = "budget_exceeded"
	KindCallDepth      Kind = "call_depth_exceeded"
	KindRegistration   Kind = "registration"
	KindInstantiation  Kind = "instantiation"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	// Code carries the program-defined value for KindCustom.
	Code uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))
	if e.Kind == KindCustom {
		fmt.Fprintf(&b, "(%d)", e.Code)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. An empty Phase on the
// target matches any phase and a zero Code matches any custom error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return e.Kind != KindCustom || t.Code == 0 || e.Code == t.Code
}

// Class returns the taxonomy bucket for the error's kind.
func (e *Error) Class() Class {
	return e.Kind.Class()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BorrowConflict creates a borrow conflict error for the named resource
func BorrowConflict(resource string, exclusive bool) *Error {
	mode := "shared"
	if exclusive {
		mode = "exclusive"
	}
	return &Error{
		Phase:  PhaseBorrow,
		Kind:   KindBorrowConflict,
		Path:   []string{resource},
		Detail: mode + " borrow unavailable",
	}
}

// MissingAccount creates a missing account error
func MissingAccount(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotEnoughAccounts,
		Detail: detail,
	}
}

// Custom creates a program-defined error
func Custom(code uint32) *Error {
	return &Error{
		Phase: PhaseProgram,
		Kind:  KindCustom,
		Code:  code,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, addr, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access at 0x%x (length %d) is not mapped", addr, length),
		Value:  addr,
	}
}

// Overflow creates an arithmetic overflow error
func Overflow(phase Phase, path []string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArithmeticOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows", value),
		Value:  value,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvokeFailed wraps a non-zero status returned across the host boundary
func InvokeFailed(status uint64) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindInvokeFailed,
		Detail: fmt.Sprintf("host returned status 0x%x", status),
		Value:  status,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Registration creates a registration error
func Registration(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s", name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a program loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind in any phase.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
