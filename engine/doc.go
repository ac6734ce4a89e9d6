// Package engine runs WebAssembly programs on wazero.
//
// # Program Contract
//
// A program is a core wasm module that exports its linear memory as
// "memory" and a function
//
//	entrypoint(input i32) -> i64
//
// Run grows the program's memory, copies the serialized input buffer into
// the new pages and calls entrypoint with the address of the first byte. The
// return value is the status: zero on success, otherwise an errors status
// code. After the call the input region is copied back out so the caller can
// parse balances, payloads and owners the program changed.
//
// Every Run gets a fresh anonymous instance, so a program may be entered
// again by a nested invocation while an earlier instance is still running.
//
// # Host Functions
//
// Programs may import the following functions from module "env":
//
//	log(ptr, len i32)
//	set_return_data(ptr, len i32)
//	get_return_data(ptr, len, program_ptr i32) -> i64
//	remaining_units() -> i64
//	invoke_signed(instr, infos, infos_len, seeds, seeds_len i32) -> i64
//
// The env module is instantiated once per engine. Each call finds the
// cpi.Host of the running program in its context; the Binder passed to Run
// creates that host with access to the program's memory. The ABI structures
// read by invoke_signed are the ones documented in package cpi, with guest
// addresses in every pointer field.
//
// # Termination
//
// The engine is created with close-on-context-done: cancelling the context
// given to Run stops the program at the next function call or loop
// iteration. The runtime uses this to enforce its compute budget.
//
// # Thread Safety
//
// WazeroEngine and WazeroModule are safe for concurrent use. A Run call is
// confined to its goroutine.
package engine
