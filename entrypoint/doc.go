// Package entrypoint turns the raw input buffer of an invocation into
// account handles, instruction data and the invoked program's address, and
// wraps a program so its outcome becomes a numeric status.
//
// # Input Layout
//
// All integers are little-endian:
//
//	u64        record count
//	per record:
//	  u64      duplication marker (NonDuplicate, or index of an earlier record)
//	  [88]     record header            (new records only)
//	  [n]      payload                  (new records only)
//	  [10240]  growth allowance         (new records only)
//	  pad to 8                          (new records only)
//	u64        instruction data length
//	[m]        instruction data
//	[32]       program address
//
// # Parsing Modes
//
// Parse walks every record up front and fills a caller-provided slice, so
// parsing allocates nothing. Reader walks records on demand for programs
// that only look at the first few accounts. Both trust the buffer: it is
// produced by the runtime, not by an adversary. ParseChecked validates every
// length against the buffer for tools that read buffers from disk.
//
// # Running a Program
//
//	status := entrypoint.Run(ctx, env, input, entrypoint.MaxAccounts, processor)
//
// Run maps a nil error to errors.Success and any other error to the status
// of its kind, see errors.Status.
package entrypoint
