package runtime

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/arena"
	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
	"github.com/wippyai/account-runtime/memory"
)

// execution is the state shared by every frame of one Execute call.
type execution struct {
	rt            *Runtime
	log           *zap.Logger
	meter         *meter
	tx            *txn
	stack         []address.Address
	logs          []string
	returnData    []byte
	returnProgram address.Address
}

// state is the mutable part of an account as a frame last saw it.
type state struct {
	data    []byte
	owner   address.Address
	balance uint64
}

func (ex *execution) invoke(ctx context.Context, ix *cpi.Instruction) error {
	depth := len(ex.stack) + 1
	if depth > ex.rt.cfg.MaxInvokeDepth {
		return errors.New(errors.PhaseRuntime, errors.KindCallDepth).
			Value(depth).
			Detail("invocation depth %d exceeds %d", depth, ex.rt.cfg.MaxInvokeDepth).
			Build()
	}
	// Direct recursion is allowed, re-entering a program further up is not.
	if n := len(ex.stack); n > 0 && ex.stack[n-1] != ix.ProgramID {
		for _, caller := range ex.stack {
			if caller == ix.ProgramID {
				return errors.New(errors.PhaseRuntime, errors.KindInvalidArgument).
					Path(ix.ProgramID.String()).
					Detail("reentrant invocation").
					Build()
			}
		}
	}

	prog, ok := ex.rt.programs.Lookup(ix.ProgramID)
	if !ok {
		return errors.New(errors.PhaseRuntime, errors.KindIncorrectProgramID).
			Path(ix.ProgramID.String()).
			Detail("program not registered").
			Build()
	}
	if err := ex.meter.consume(CostInvoke); err != nil {
		return err
	}

	f, buf, err := ex.newFrame(ix, depth)
	if err != nil {
		return err
	}

	ex.stack = append(ex.stack, ix.ProgramID)
	defer func() { ex.stack = ex.stack[:len(ex.stack)-1] }()

	ex.log.Debug("invoke",
		zap.Stringer("program", ix.ProgramID),
		zap.Int("depth", depth),
		zap.Int("accounts", len(ix.Accounts)),
		zap.Bool("wasm", prog.IsWasm()))

	out, base, err := ex.run(ctx, prog, f, buf)
	if err != nil {
		return err
	}
	return f.finish(out, base)
}

// newFrame loads the accounts of ix and serializes the frame's input.
// Repeated accounts become duplicate markers whose flags are merged into
// the first occurrence.
func (ex *execution) newFrame(ix *cpi.Instruction, depth int) (*frame, []byte, error) {
	entries := make([]entrypoint.InputAccount, 0, len(ix.Accounts))
	first := make(map[address.Address]int, len(ix.Accounts))

	for _, meta := range ix.Accounts {
		if j, ok := first[meta.Key]; ok {
			entries[j].Signer = entries[j].Signer || meta.Signer
			entries[j].Writable = entries[j].Writable || meta.Writable
			entries = append(entries, entrypoint.InputAccount{Duplicate: true, DuplicateOf: j})
			continue
		}
		acct, ok := ex.tx.get(meta.Key)
		if !ok {
			return nil, nil, errors.MissingAccount(errors.PhaseRuntime, "account "+meta.Key.String()+" not found")
		}
		first[meta.Key] = len(entries)
		entries = append(entries, entrypoint.InputAccount{
			Data:       acct.Data,
			Key:        acct.Address,
			Owner:      acct.Owner,
			Balance:    acct.Balance,
			Signer:     meta.Signer,
			Writable:   meta.Writable,
			Executable: acct.Executable,
		})
	}

	buf, err := entrypoint.Serialize(entries, ix.Data, ix.ProgramID)
	if err != nil {
		return nil, nil, err
	}

	f := &frame{
		ex:      ex,
		program: ix.ProgramID,
		depth:   depth,
		entries: entries,
		offsets: make([]int, len(entries)),
		origin:  make([]state, len(entries)),
		pre:     make([]state, len(entries)),
	}
	_, handles, _ := entrypoint.ParseAt(0, buf, make([]account.Account, len(entries)))
	for i, h := range handles {
		f.offsets[i] = h.Offset()
		if e := entries[i]; !e.Duplicate {
			f.origin[i] = state{data: e.Data, owner: e.Owner, balance: e.Balance}
		}
	}
	copy(f.pre, f.origin)
	return f, buf, nil
}

// run executes the program and returns its input region after the call
// together with the address the region was mapped at.
func (ex *execution) run(ctx context.Context, prog *Program, f *frame, buf []byte) ([]byte, uint64, error) {
	if prog.IsWasm() {
		res, err := prog.module.Run(ctx, buf, func(mem accountruntime.Memory, inputAddr uint64) cpi.Host {
			f.mem, f.base = mem, inputAddr
			return f
		})
		if ex.meter.exhausted {
			return nil, 0, ex.meter.err()
		}
		if err != nil {
			return nil, 0, err
		}
		if res.Status != errors.Success {
			return nil, 0, statusError(res.Status)
		}
		return res.Input, res.InputAddr, nil
	}

	heap := arena.New(accountruntime.HeapStart, ex.rt.cfg.HeapSize)
	mem, err := memory.NewMap(
		memory.Region{Data: heap.Region(), Start: heap.Base(), Writable: true},
		memory.Region{Data: buf, Start: accountruntime.InputStart, Writable: true},
	)
	if err != nil {
		return nil, 0, err
	}
	f.mem, f.base = mem, accountruntime.InputStart

	env := &cpi.Env{Host: f, Heap: heap, ProgramID: f.program}
	err = ex.process(ctx, env, buf, prog.processor)
	if ex.meter.exhausted {
		return nil, 0, ex.meter.err()
	}
	if err != nil {
		return nil, 0, err
	}
	return buf, accountruntime.InputStart, nil
}

func (ex *execution) process(ctx context.Context, env *cpi.Env, buf []byte, p entrypoint.Processor) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = errors.New(errors.PhaseProgram, errors.KindInvalidInput).
				Value(v).
				Detail("program panicked: %v", v).
				Build()
		}
	}()
	return entrypoint.Execute(ctx, env, buf, ex.rt.cfg.Capacity, p)
}

func statusError(status uint64) error {
	e := errors.FromStatus(status)
	e.Phase = errors.PhaseProgram
	return e
}

// finish checks every account change of the frame and stages the result in
// the txn.
func (f *frame) finish(out []byte, base uint64) error {
	mem, err := memory.NewMap(memory.Region{Data: out, Start: base})
	if err != nil {
		return err
	}

	var before, after uint64
	final := make([]state, len(f.entries))
	for i, e := range f.entries {
		if e.Duplicate {
			continue
		}
		st, err := f.load(mem, base, i)
		if err != nil {
			return err
		}
		if err := f.verify(i, st); err != nil {
			return err
		}
		final[i] = st

		var ok bool
		if before, ok = add(before, f.origin[i].balance); !ok {
			return errors.Overflow(errors.PhaseRuntime, []string{"balance"}, before)
		}
		if after, ok = add(after, st.balance); !ok {
			return errors.Overflow(errors.PhaseRuntime, []string{"balance"}, after)
		}
	}
	if before != after {
		return errors.New(errors.PhaseRuntime, errors.KindInvalidArgument).
			Path(f.program.String()).
			Detail("sum of balances changed from %d to %d", before, after).
			Build()
	}

	for i, e := range f.entries {
		if !e.Duplicate {
			f.ex.tx.put(f.stored(i, final[i]))
		}
	}
	return nil
}

func add(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}

// verify checks the change of entry i from the frame's last view to st.
func (f *frame) verify(i int, st state) error {
	pre, e := f.pre[i], f.entries[i]
	ownerChanged := pre.owner != st.owner
	dataChanged := !bytes.Equal(pre.data, st.data)
	if !ownerChanged && !dataChanged && pre.balance == st.balance {
		return nil
	}

	if !e.Writable || e.Executable {
		return errors.New(errors.PhaseRuntime, errors.KindImmutable).
			Path(e.Key.String()).
			Detail("read-only account modified").
			Build()
	}
	if pre.owner != f.program && (ownerChanged || dataChanged || st.balance < pre.balance) {
		return errors.New(errors.PhaseRuntime, errors.KindIncorrectProgramID).
			Path(e.Key.String()).
			Detail("account owned by %s modified by %s", pre.owner, f.program).
			Build()
	}
	return nil
}

func (f *frame) stored(i int, st state) StoredAccount {
	e := f.entries[i]
	return StoredAccount{
		Data:       st.data,
		Address:    e.Key,
		Owner:      st.owner,
		Balance:    st.balance,
		Executable: e.Executable,
	}
}
