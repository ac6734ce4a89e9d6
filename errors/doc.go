// Package errors provides structured error types for the account runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindImmutable).
//		Path(key.String()).
//		Detail("writable privilege escalated").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BorrowConflict("data", true)
//	err := errors.OutOfBounds(errors.PhaseRuntime, addr, 8)
//
// # Status Codes
//
// Programs report failure across the host boundary as a uint64 status.
// Status maps an error to its code and FromStatus rebuilds an error from one.
// Zero is success, kinds 1 through 18 have fixed codes, and program-defined
// errors created with Custom report 1<<32 | code. Kinds without a code report
// as invalid argument.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
