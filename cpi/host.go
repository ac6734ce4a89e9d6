package cpi

import (
	"context"
	"fmt"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/arena"
	"github.com/wippyai/account-runtime/errors"
)

// Host is the boundary a program calls out through. Addresses are virtual
// addresses in the calling frame's memory.
type Host interface {
	// InvokeSigned executes the Instruction at instr. It returns the callee's
	// status, zero on success.
	InvokeSigned(ctx context.Context, instr, infos, infosLen, seeds, seedsLen uint64) uint64
	SetReturnData(ctx context.Context, data []byte) error
	// ReturnData copies the current return data into dst and returns the
	// number of bytes copied and the program that set it.
	ReturnData(dst []byte) (int, address.Address)
	RemainingUnits() uint64
	Log(ctx context.Context, msg string)
}

// Env is what a program receives besides its input: the host and the heap
// ABI structures are written to.
type Env struct {
	Host      Host
	Heap      *arena.Arena
	ProgramID address.Address
}

func (e *Env) check() error {
	if e == nil || e.Host == nil {
		return errors.InvalidArgument(errors.PhaseInvoke, "no host attached")
	}
	if e.Heap == nil {
		return errors.InvalidArgument(errors.PhaseInvoke, "no heap attached")
	}
	return nil
}

// Log writes msg to the program log. It is dropped when no host is attached.
func (e *Env) Log(ctx context.Context, msg string) {
	if e == nil || e.Host == nil {
		return
	}
	e.Host.Log(ctx, msg)
}

// Logf formats and logs.
func (e *Env) Logf(ctx context.Context, format string, args ...any) {
	e.Log(ctx, fmt.Sprintf(format, args...))
}

// RemainingUnits returns the compute budget left, or zero without a host.
func (e *Env) RemainingUnits() uint64 {
	if e == nil || e.Host == nil {
		return 0
	}
	return e.Host.RemainingUnits()
}
