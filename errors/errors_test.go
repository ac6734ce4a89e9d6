package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseInvoke,
				Kind:   KindMissingSignature,
				Path:   []string{"accounts", "vault"},
				Detail: "signer privilege escalated",
			},
			contains: []string{"[invoke]", "missing_required_signature", "accounts.vault", "signer privilege escalated"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseParse,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[parse]", "out_of_bounds"},
		},
		{
			name:     "custom error",
			err:      Custom(42),
			contains: []string{"[program]", "custom(42)"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "heap full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[alloc]", "allocation", "heap full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	// Test with errors.Unwrap
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseBorrow,
		Kind:  KindBorrowConflict,
		Path:  []string{"data"},
	}

	if !errors.Is(err, &Error{Phase: PhaseBorrow, Kind: KindBorrowConflict}) {
		t.Error("same phase and kind should match")
	}
	if !errors.Is(err, &Error{Kind: KindBorrowConflict}) {
		t.Error("empty phase should match any phase")
	}
	if errors.Is(err, &Error{Phase: PhaseInvoke, Kind: KindBorrowConflict}) {
		t.Error("different phase should not match")
	}
	if errors.Is(err, &Error{Kind: KindImmutable}) {
		t.Error("different kind should not match")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsKind(wrapped, KindBorrowConflict) {
		t.Error("IsKind should see through wrapping")
	}
	if kind, ok := KindOf(wrapped); !ok || kind != KindBorrowConflict {
		t.Errorf("KindOf = %q, %v", kind, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should fail on a plain error")
	}

	if !errors.Is(Custom(7), &Error{Kind: KindCustom}) {
		t.Error("zero code should match any custom error")
	}
	if !errors.Is(Custom(7), &Error{Kind: KindCustom, Code: 7}) {
		t.Error("same code should match")
	}
	if errors.Is(Custom(7), &Error{Kind: KindCustom, Code: 8}) {
		t.Error("different code should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("cause")
	err := New(PhaseRuntime, KindInvalidAccountData).
		Path("records", "3").
		Value(uint64(99)).
		Detail("payload length %d exceeds %d", 99, 10).
		Cause(cause).
		Build()

	if err.Phase != PhaseRuntime || err.Kind != KindInvalidAccountData {
		t.Errorf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if strings.Join(err.Path, ".") != "records.3" {
		t.Errorf("unexpected path: %v", err.Path)
	}
	if err.Value != uint64(99) {
		t.Errorf("unexpected value: %v", err.Value)
	}
	if err.Detail != "payload length 99 exceeds 10" {
		t.Errorf("unexpected detail: %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}

	verbatim := "100%"
	plain := New(PhaseParse, KindInvalidInput).Detail(verbatim).Build()
	if plain.Detail != "100%" {
		t.Errorf("detail without args should be kept verbatim, got %q", plain.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err   *Error
		name  string
		phase Phase
		kind  Kind
	}{
		{BorrowConflict("data", true), "BorrowConflict", PhaseBorrow, KindBorrowConflict},
		{MissingAccount(PhaseInvoke, "x"), "MissingAccount", PhaseInvoke, KindNotEnoughAccounts},
		{AllocationFailed(PhaseAlloc, 64, 8), "AllocationFailed", PhaseAlloc, KindAllocation},
		{OutOfBounds(PhaseRuntime, 0x10, 4), "OutOfBounds", PhaseRuntime, KindOutOfBounds},
		{Overflow(PhaseRuntime, []string{"balance"}, 1), "Overflow", PhaseRuntime, KindArithmeticOverflow},
		{InvalidArgument(PhaseInvoke, "x"), "InvalidArgument", PhaseInvoke, KindInvalidArgument},
		{InvalidInput(PhaseValidate, "x"), "InvalidInput", PhaseValidate, KindInvalidInput},
		{NotFound(PhaseHost, "host for", "log"), "NotFound", PhaseHost, KindNotFound},
		{InvokeFailed(5), "InvokeFailed", PhaseInvoke, KindInvokeFailed},
		{Wrap(PhaseLoad, KindInvalidInput, errors.New("x"), "x"), "Wrap", PhaseLoad, KindInvalidInput},
		{Registration(PhaseHost, "p", nil), "Registration", PhaseHost, KindRegistration},
		{Instantiation(errors.New("x")), "Instantiation", PhaseLoad, KindInstantiation},
		{Load("x", nil), "Load", PhaseLoad, KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("phase = %s, want %s", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	if !strings.Contains(BorrowConflict("balance", false).Error(), "shared borrow unavailable") {
		t.Error("shared conflict should say so")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want uint64
	}{
		{nil, "nil", Success},
		{BorrowConflict("data", true), "borrow conflict", 1},
		{New(PhaseProgram, KindIncorrectAuthority).Build(), "last standard kind", 18},
		{Custom(7), "custom", StatusCustomBase | 7},
		{InvokeFailed(StatusCustomBase | 3), "propagated custom", StatusCustomBase | 3},
		{InvokeFailed(17), "propagated immutable", 17},
		{fmt.Errorf("wrapped: %w", New(PhaseRuntime, KindImmutable).Build()), "wrapped", 17},
		{New(PhaseRuntime, KindBudgetExceeded).Build(), "internal kind", 3},
		{errors.New("plain"), "plain error", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status = 0x%x, want 0x%x", got, tt.want)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	if FromStatus(Success) != nil {
		t.Error("success should map to nil")
	}

	for code := uint64(1); code <= 18; code++ {
		e := FromStatus(code)
		if e == nil || Status(e) != code {
			t.Errorf("status %d does not round trip: %v", code, e)
		}
	}

	custom := FromStatus(StatusCustomBase | 9)
	if custom.Kind != KindCustom || custom.Code != 9 {
		t.Errorf("unexpected custom error: %+v", custom)
	}

	unknown := FromStatus(999)
	if unknown.Kind != KindInvokeFailed || Status(unknown) != 999 {
		t.Errorf("unknown status should be carried through, got %+v", unknown)
	}
}

func TestKind_Class(t *testing.T) {
	tests := []struct {
		kind Kind
		want Class
	}{
		{KindInvalidAccountData, ClassEncoding},
		{KindInvalidInstruction, ClassEncoding},
		{KindBorrowConflict, ClassResource},
		{KindBudgetExceeded, ClassResource},
		{KindArithmeticOverflow, ClassArithmetic},
		{KindImmutable, ClassValidation},
		{KindMissingSignature, ClassValidation},
	}

	for _, tt := range tests {
		if got := tt.kind.Class(); got != tt.want {
			t.Errorf("%s.Class() = %s, want %s", tt.kind, got, tt.want)
		}
	}
	if Custom(1).Class() != ClassValidation {
		t.Error("custom errors are validation failures")
	}
}
