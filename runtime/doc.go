// Package runtime executes instructions against an account store.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	rt.Store().Put(runtime.StoredAccount{Address: payer, Owner: token, Balance: 100})
//	rt.Store().Put(runtime.StoredAccount{Address: payee, Owner: token})
//
//	// Register a Go program
//	rt.RegisterProcessor(token, entrypoint.ProcessorFunc(transfer))
//
//	// Or a compiled wasm program
//	rt.RegisterWasm(ctx, other, wasmBytes)
//
//	res, err := rt.Execute(ctx, cpi.Instruction{
//	    ProgramID: token,
//	    Accounts:  []cpi.AccountMeta{cpi.WritableSigner(payer), cpi.Writable(payee)},
//	    Data:      []byte{1},
//	})
//
// # Frames
//
// Every invocation, top-level or nested, runs in its own frame. The frame
// serializes the invocation's accounts into a fresh input buffer, runs the
// program and reads the buffer back. Changes are checked against the state
// the frame started with:
//
//   - read-only and executable accounts must not change
//   - only the owner may change data or owner, or debit the balance
//   - payload growth is bounded by the per-record allowance
//   - the sum of balances is preserved
//
// A nested invocation first publishes the caller's pending changes to the
// callee and afterwards copies the callee's results back into the caller's
// buffer. A failed nested invocation leaves no trace in the store.
//
// # Budget
//
// Each Execute call gets Config.ComputeUnits units. Invocations, logs and
// return data are charged. Running out aborts the whole execution; for wasm
// programs the execution context is canceled, which terminates the guest.
//
// # Thread Safety
//
// Runtime is safe for concurrent use. Execute calls are serialized.
package runtime
