// Package cpi marshals cross-program invocations.
//
// A program delegates work to another program by describing the call as an
// Instruction and handing it, together with the account handles it holds, to
// one of the Invoke functions. The marshaler checks every named account
// against the handles and their borrow state, writes the fixed ABI structures
// into the program's heap and calls the host.
//
// # ABI
//
// All structures are little-endian with 8-byte pointers holding virtual
// addresses:
//
//	Instruction (40 bytes)
//	  0   program id ptr
//	  8   account metas ptr
//	  16  account metas len
//	  24  data ptr
//	  32  data len
//
//	AccountMeta (16 bytes)
//	  0   key ptr
//	  8   writable
//	  9   signer
//
//	AccountInfo (56 bytes)
//	  0   key ptr
//	  8   balance ptr
//	  16  data len
//	  24  data ptr
//	  32  owner ptr
//	  40  epoch (always zero)
//	  48  signer
//	  49  writable
//	  50  executable
//
//	SignerSeeds / Seed (16 bytes each)
//	  0   ptr
//	  8   len
//
// Field order is part of the contract with the host and must not change.
//
// # Borrow Checks
//
// A writable entry requires that its record have no outstanding hold on
// either resource; a read-only entry requires that no exclusive hold be
// outstanding. Handing a record to another program while a guard over it is
// live would let the callee mutate memory the caller still believes it owns.
//
// # Return Data
//
// SetReturnData replaces the invocation's return data, bounded by
// MaxReturnData. GetReturnData copies it into a caller buffer; reading when
// nothing was set yields zero bytes.
package cpi
