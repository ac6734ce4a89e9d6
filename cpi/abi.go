package cpi

import (
	"encoding/binary"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/arena"
	"github.com/wippyai/account-runtime/errors"
)

// ABI structure sizes.
const (
	InstructionSize = 40
	AccountMetaSize = 16
	AccountInfoSize = 56
	SignerSeedsSize = 16
	SeedSize        = 16
)

const ptrAlign = 8

// AccountInfo is one account entry of the ABI. Pointer fields hold virtual
// addresses into the caller's input buffer.
type AccountInfo struct {
	KeyAddr     uint64
	BalanceAddr uint64
	DataLen     uint64
	DataAddr    uint64
	OwnerAddr   uint64
	Signer      bool
	Writable    bool
	Executable  bool
}

// InfoOf describes a for the host.
func InfoOf(a account.Account) AccountInfo {
	return AccountInfo{
		KeyAddr:     a.KeyAddr(),
		BalanceAddr: a.BalanceAddr(),
		DataLen:     a.DataLen(),
		DataAddr:    a.DataAddr(),
		OwnerAddr:   a.OwnerAddr(),
		Signer:      a.IsSigner(),
		Writable:    a.IsWritable(),
		Executable:  a.Executable(),
	}
}

func (i AccountInfo) put(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:], i.KeyAddr)
	binary.LittleEndian.PutUint64(dst[8:], i.BalanceAddr)
	binary.LittleEndian.PutUint64(dst[16:], i.DataLen)
	binary.LittleEndian.PutUint64(dst[24:], i.DataAddr)
	binary.LittleEndian.PutUint64(dst[32:], i.OwnerAddr)
	binary.LittleEndian.PutUint64(dst[40:], 0)
	dst[48] = flag(i.Signer)
	dst[49] = flag(i.Writable)
	dst[50] = flag(i.Executable)
}

func readInfo(src []byte) AccountInfo {
	return AccountInfo{
		KeyAddr:     binary.LittleEndian.Uint64(src[0:]),
		BalanceAddr: binary.LittleEndian.Uint64(src[8:]),
		DataLen:     binary.LittleEndian.Uint64(src[16:]),
		DataAddr:    binary.LittleEndian.Uint64(src[24:]),
		OwnerAddr:   binary.LittleEndian.Uint64(src[32:]),
		Signer:      src[48] != 0,
		Writable:    src[49] != 0,
		Executable:  src[50] != 0,
	}
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func block(heap *arena.Arena, size uint64) (uint64, []byte, error) {
	addr, err := heap.Alloc(size, ptrAlign)
	if err != nil {
		return 0, nil, err
	}
	buf, err := heap.Bytes(addr, size)
	if err != nil {
		return 0, nil, err
	}
	return addr, buf, nil
}

// EncodeInstruction writes ix and everything it points to into heap and
// returns the address of the Instruction structure.
func EncodeInstruction(heap *arena.Arena, ix *Instruction) (uint64, error) {
	programAddr, err := heap.AllocBytes(ix.ProgramID[:], 1)
	if err != nil {
		return 0, err
	}
	dataAddr, err := heap.AllocBytes(ix.Data, 1)
	if err != nil {
		return 0, err
	}

	n := uint64(len(ix.Accounts))
	keysAddr, keys, err := block(heap, n*address.Size)
	if err != nil {
		return 0, err
	}
	metasAddr, metas, err := block(heap, n*AccountMetaSize)
	if err != nil {
		return 0, err
	}
	for i, m := range ix.Accounts {
		copy(keys[i*address.Size:], m.Key[:])
		entry := metas[i*AccountMetaSize:]
		binary.LittleEndian.PutUint64(entry, keysAddr+uint64(i*address.Size))
		entry[8] = flag(m.Writable)
		entry[9] = flag(m.Signer)
	}

	addr, out, err := block(heap, InstructionSize)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(out[0:], programAddr)
	binary.LittleEndian.PutUint64(out[8:], metasAddr)
	binary.LittleEndian.PutUint64(out[16:], n)
	binary.LittleEndian.PutUint64(out[24:], dataAddr)
	binary.LittleEndian.PutUint64(out[32:], uint64(len(ix.Data)))
	return addr, nil
}

// EncodeAccountInfos writes infos as a contiguous array into heap.
func EncodeAccountInfos(heap *arena.Arena, infos []AccountInfo) (uint64, error) {
	addr, out, err := block(heap, uint64(len(infos))*AccountInfoSize)
	if err != nil {
		return 0, err
	}
	for i, info := range infos {
		info.put(out[i*AccountInfoSize:])
	}
	return addr, nil
}

// EncodeSigners writes the signer seed table into heap.
func EncodeSigners(heap *arena.Arena, signers []Signer) (uint64, error) {
	addr, table, err := block(heap, uint64(len(signers))*SignerSeedsSize)
	if err != nil {
		return 0, err
	}
	for i, signer := range signers {
		seedsAddr, seeds, err := block(heap, uint64(len(signer))*SeedSize)
		if err != nil {
			return 0, err
		}
		for j, seed := range signer {
			seedAddr, err := heap.AllocBytes(seed, 1)
			if err != nil {
				return 0, err
			}
			binary.LittleEndian.PutUint64(seeds[j*SeedSize:], seedAddr)
			binary.LittleEndian.PutUint64(seeds[j*SeedSize+8:], uint64(len(seed)))
		}
		binary.LittleEndian.PutUint64(table[i*SignerSeedsSize:], seedsAddr)
		binary.LittleEndian.PutUint64(table[i*SignerSeedsSize+8:], uint64(len(signer)))
	}
	return addr, nil
}

// read is mem.Read that accepts any address for an empty range.
func read(mem accountruntime.Memory, addr, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	return mem.Read(addr, n)
}

func readAddress(mem accountruntime.Memory, addr uint64) (address.Address, error) {
	b, err := mem.Read(addr, address.Size)
	if err != nil {
		return address.Address{}, err
	}
	return address.FromBytes(b)
}

// DecodeInstruction reads an Instruction structure at addr. Instruction data
// is copied out of mem.
func DecodeInstruction(mem accountruntime.Memory, addr uint64) (*Instruction, error) {
	raw, err := mem.Read(addr, InstructionSize)
	if err != nil {
		return nil, err
	}
	programAddr := binary.LittleEndian.Uint64(raw[0:])
	metasAddr := binary.LittleEndian.Uint64(raw[8:])
	n := binary.LittleEndian.Uint64(raw[16:])
	dataAddr := binary.LittleEndian.Uint64(raw[24:])
	dataLen := binary.LittleEndian.Uint64(raw[32:])

	if n > MaxCPIAccounts {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
			Path("instruction", "accounts").
			Value(n).
			Detail("%d account metas exceed %d", n, MaxCPIAccounts).
			Build()
	}
	if dataLen > MaxCPIDataLen {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidInstruction).
			Path("instruction", "data").
			Value(dataLen).
			Detail("%d bytes of instruction data exceed %d", dataLen, MaxCPIDataLen).
			Build()
	}

	ix := &Instruction{Accounts: make([]AccountMeta, n)}
	if ix.ProgramID, err = readAddress(mem, programAddr); err != nil {
		return nil, err
	}
	metas, err := read(mem, metasAddr, n*AccountMetaSize)
	if err != nil {
		return nil, err
	}
	for i := range ix.Accounts {
		entry := metas[i*AccountMetaSize:]
		key, err := readAddress(mem, binary.LittleEndian.Uint64(entry))
		if err != nil {
			return nil, err
		}
		ix.Accounts[i] = AccountMeta{Key: key, Writable: entry[8] != 0, Signer: entry[9] != 0}
	}

	data, err := read(mem, dataAddr, dataLen)
	if err != nil {
		return nil, err
	}
	ix.Data = append([]byte(nil), data...)
	return ix, nil
}

// DecodeAccountInfos reads n AccountInfo entries at addr.
func DecodeAccountInfos(mem accountruntime.Memory, addr, n uint64) ([]AccountInfo, error) {
	if n > MaxCPIAccounts {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
			Path("account_infos").
			Value(n).
			Detail("%d account infos exceed %d", n, MaxCPIAccounts).
			Build()
	}
	raw, err := read(mem, addr, n*AccountInfoSize)
	if err != nil {
		return nil, err
	}
	infos := make([]AccountInfo, n)
	for i := range infos {
		infos[i] = readInfo(raw[i*AccountInfoSize:])
	}
	return infos, nil
}

// DecodeSigners reads the signer seed table at addr. Seed bytes are copied
// out of mem.
func DecodeSigners(mem accountruntime.Memory, addr, n uint64) ([]Signer, error) {
	if n > MaxSigners {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
			Path("signers").
			Value(n).
			Detail("%d signers exceed %d", n, MaxSigners).
			Build()
	}
	table, err := read(mem, addr, n*SignerSeedsSize)
	if err != nil {
		return nil, err
	}

	signers := make([]Signer, n)
	for i := range signers {
		seedsAddr := binary.LittleEndian.Uint64(table[i*SignerSeedsSize:])
		count := binary.LittleEndian.Uint64(table[i*SignerSeedsSize+8:])
		if count > address.MaxSeeds {
			return nil, errors.New(errors.PhaseInvoke, errors.KindMaxSeedLengthExceeded).
				Path("signers").
				Value(count).
				Detail("signer %d has %d seeds, limit is %d", i, count, address.MaxSeeds).
				Build()
		}
		seeds, err := read(mem, seedsAddr, count*SeedSize)
		if err != nil {
			return nil, err
		}
		signer := make(Signer, count)
		for j := range signer {
			ptr := binary.LittleEndian.Uint64(seeds[j*SeedSize:])
			length := binary.LittleEndian.Uint64(seeds[j*SeedSize+8:])
			if length > address.MaxSeedLen {
				return nil, errors.New(errors.PhaseInvoke, errors.KindMaxSeedLengthExceeded).
					Path("signers").
					Value(length).
					Detail("seed %d of signer %d is %d bytes, limit is %d", j, i, length, address.MaxSeedLen).
					Build()
			}
			b, err := read(mem, ptr, length)
			if err != nil {
				return nil, err
			}
			signer[j] = append(Seed(nil), b...)
		}
		signers[i] = signer
	}
	return signers, nil
}
