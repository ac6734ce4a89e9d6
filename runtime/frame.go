package runtime

import (
	"context"
	"encoding/binary"
	"sort"

	"go.uber.org/zap"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
)

// frame is one running program. It implements cpi.Host for that program.
type frame struct {
	ex      *execution
	mem     accountruntime.Memory
	entries []entrypoint.InputAccount
	offsets []int
	// origin is the state at frame entry, pre the state after the last
	// exchange with a nested call.
	origin  []state
	pre     []state
	base    uint64
	depth   int
	program address.Address
}

var _ cpi.Host = (*frame)(nil)

func (f *frame) recordAddr(i int) uint64 {
	return f.base + uint64(f.offsets[i])
}

// load reads entry i from mem, where the frame's input is mapped at base.
func (f *frame) load(mem accountruntime.Memory, base uint64, i int) (state, error) {
	addr := base + uint64(f.offsets[i])
	raw, err := mem.Read(addr, account.HeaderSize)
	if err != nil {
		return state{}, err
	}
	h := account.ReadHeader(raw)

	limit := uint64(len(f.origin[i].data)) + account.MaxPermittedDataIncrease
	if h.DataLen > limit {
		return state{}, errors.New(errors.PhaseRuntime, errors.KindInvalidAccountData).
			Path(f.entries[i].Key.String()).
			Value(h.DataLen).
			Detail("payload length %d exceeds %d", h.DataLen, limit).
			Build()
	}
	data, err := mem.Read(addr+account.HeaderSize, h.DataLen)
	if err != nil {
		return state{}, err
	}
	return state{
		data:    append([]byte(nil), data...),
		owner:   h.Owner,
		balance: h.Balance,
	}, nil
}

// storeState writes st into entry i of the frame's own memory.
func (f *frame) storeState(i int, st state) error {
	addr := f.recordAddr(i)
	raw, err := f.mem.Read(addr, account.HeaderSize)
	if err != nil {
		return err
	}
	oldLen := binary.LittleEndian.Uint64(raw[account.OffsetDataLen:])
	origLen := uint64(len(f.origin[i].data))
	newLen := uint64(len(st.data))
	if newLen > origLen+account.MaxPermittedDataIncrease {
		return errors.New(errors.PhaseRuntime, errors.KindInvalidAccountData).
			Path(f.entries[i].Key.String()).
			Value(newLen).
			Detail("payload length %d exceeds the record allowance", newLen).
			Build()
	}

	if err := f.mem.WriteU64(addr+account.OffsetBalance, st.balance); err != nil {
		return err
	}
	if err := f.mem.Write(addr+account.OffsetOwner, st.owner[:]); err != nil {
		return err
	}
	if err := f.mem.WriteU64(addr+account.OffsetDataLen, newLen); err != nil {
		return err
	}
	if err := f.mem.WriteU32(addr+account.OffsetResizeDelta, uint32(int32(int64(newLen)-int64(origLen)))); err != nil {
		return err
	}
	if err := f.mem.Write(addr+account.HeaderSize, st.data); err != nil {
		return err
	}
	if oldLen > newLen {
		return f.mem.Write(addr+account.HeaderSize+newLen, make([]byte, oldLen-newLen))
	}
	return nil
}

// resolve maps an account info written by the program to the entry it
// describes. Every pointer must point into that entry's record.
func (f *frame) resolve(info cpi.AccountInfo) (int, error) {
	for i, e := range f.entries {
		if e.Duplicate {
			continue
		}
		addr := f.recordAddr(i)
		if info.KeyAddr != addr+account.OffsetKey {
			continue
		}
		if info.BalanceAddr != addr+account.OffsetBalance ||
			info.OwnerAddr != addr+account.OffsetOwner ||
			info.DataAddr != addr+account.HeaderSize {
			break
		}
		return i, nil
	}
	return 0, errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
		Value(info.KeyAddr).
		Detail("account info at 0x%x does not describe an input record", info.KeyAddr).
		Build()
}

func (f *frame) InvokeSigned(ctx context.Context, instr, infos, infosLen, seeds, seedsLen uint64) uint64 {
	err := f.invokeSigned(ctx, instr, infos, infosLen, seeds, seedsLen)
	if err != nil {
		f.ex.log.Debug("nested invocation failed",
			zap.Stringer("caller", f.program),
			zap.Int("depth", f.depth),
			zap.Error(err))
	}
	return errors.Status(err)
}

func (f *frame) invokeSigned(ctx context.Context, instr, infos, infosLen, seeds, seedsLen uint64) error {
	ix, err := cpi.DecodeInstruction(f.mem, instr)
	if err != nil {
		return err
	}
	infoList, err := cpi.DecodeAccountInfos(f.mem, infos, infosLen)
	if err != nil {
		return err
	}
	signers, err := cpi.DecodeSigners(f.mem, seeds, seedsLen)
	if err != nil {
		return err
	}

	provided := make(map[address.Address]int, len(infoList))
	for _, info := range infoList {
		i, err := f.resolve(info)
		if err != nil {
			return err
		}
		provided[f.entries[i].Key] = i
	}

	signed := make(map[address.Address]bool, len(signers))
	for _, s := range signers {
		addr, err := address.Create(s.Bytes(), f.program)
		if err != nil {
			return err
		}
		signed[addr] = true
	}

	for _, meta := range ix.Accounts {
		i, ok := provided[meta.Key]
		if !ok {
			return errors.MissingAccount(errors.PhaseInvoke, "account "+meta.Key.String()+" not provided")
		}
		e := f.entries[i]
		if meta.Writable && !e.Writable {
			return errors.New(errors.PhaseInvoke, errors.KindImmutable).
				Path(meta.Key.String()).
				Detail("writable privilege escalated").
				Build()
		}
		if meta.Signer && !e.Signer && !signed[meta.Key] {
			return errors.New(errors.PhaseInvoke, errors.KindMissingSignature).
				Path(meta.Key.String()).
				Detail("signer privilege escalated").
				Build()
		}
	}

	indices := make([]int, 0, len(provided))
	for _, i := range provided {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	// Publish the caller's changes so the callee sees them.
	for _, i := range indices {
		st, err := f.load(f.mem, f.base, i)
		if err != nil {
			return err
		}
		if err := f.verify(i, st); err != nil {
			return err
		}
		f.pre[i] = st
		f.ex.tx.put(f.stored(i, st))
	}

	mark := f.ex.tx.checkpoint()
	if err := f.ex.invoke(ctx, ix); err != nil {
		f.ex.tx.rollback(mark)
		return err
	}

	for _, i := range indices {
		acct, _ := f.ex.tx.get(f.entries[i].Key)
		st := state{data: acct.Data, owner: acct.Owner, balance: acct.Balance}
		if err := f.storeState(i, st); err != nil {
			return err
		}
		f.pre[i] = st
	}
	return nil
}

func (f *frame) SetReturnData(ctx context.Context, data []byte) error {
	if err := f.ex.meter.consume(CostReturnData); err != nil {
		return err
	}
	if len(data) > cpi.MaxReturnData {
		return errors.New(errors.PhaseRuntime, errors.KindInvalidArgument).
			Value(len(data)).
			Detail("%d bytes of return data exceed %d", len(data), cpi.MaxReturnData).
			Build()
	}
	f.ex.returnData = append([]byte(nil), data...)
	f.ex.returnProgram = f.program
	return nil
}

func (f *frame) ReturnData(dst []byte) (int, address.Address) {
	if len(f.ex.returnData) == 0 {
		return 0, address.Address{}
	}
	return copy(dst, f.ex.returnData), f.ex.returnProgram
}

func (f *frame) RemainingUnits() uint64 {
	return f.ex.meter.remaining()
}

func (f *frame) Log(ctx context.Context, msg string) {
	if err := f.ex.meter.consume(CostLog); err != nil {
		return
	}
	f.ex.logs = append(f.ex.logs, "Program "+f.program.String()+": "+msg)
	f.ex.log.Info("program log",
		zap.Stringer("program", f.program),
		zap.Int("depth", f.depth),
		zap.String("message", msg))
}
