// Package accountruntime executes short-lived programs against a batch of
// externally owned account records packed into one input buffer.
//
// A program never copies the records it is given. The input buffer is parsed
// in place into account handles, several of which may refer to the same
// record. Every record carries a one-byte borrow state that all of its
// handles share, so a mutable view taken through one handle blocks any other
// view taken through an alias.
//
// # Architecture Overview
//
//	accountruntime/      Root package with the Memory and Allocator interfaces
//	├── account/         Record layout, borrow state machine, Ref/RefMut guards
//	├── entrypoint/      Input buffer parser, serializer and the Run wrapper
//	├── cpi/             Cross-program invocation marshaler and return data
//	├── address/         Addresses and derived (seed based) addresses
//	├── arena/           Bump allocator backing a program's heap
//	├── memory/          Virtual address map over heap and input regions
//	├── engine/          wazero integration for programs compiled to wasm
//	├── runtime/         Account store, program registry and execution frames
//	├── fixture/         Compressed input buffer fixtures
//	└── errors/          Structured errors and numeric status codes
//
// # Quick Start
//
// Register a program and execute an instruction against an account store:
//
//	rt, err := runtime.New(ctx, runtime.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	rt.RegisterProcessor(programID, entrypoint.ProcessorFunc(process))
//	rt.Store().Put(runtime.StoredAccount{Address: payer, Balance: 1_000_000})
//
//	res, err := rt.Execute(ctx, cpi.Instruction{
//	    ProgramID: programID,
//	    Accounts:  []cpi.AccountMeta{cpi.WritableSigner(payer)},
//	})
//
// # Memory Model
//
// Each execution frame maps its heap at HeapStart and its serialized input
// at InputStart. ABI structures written by the cpi package refer to records
// by their virtual address, which the host resolves through Memory.
//
// # Thread Safety
//
// An invocation is single threaded. Account handles, guards and the heap are
// not safe for concurrent use. Runtime is safe for concurrent use; its
// Execute calls are serialized.
package accountruntime
