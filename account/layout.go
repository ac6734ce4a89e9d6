package account

import (
	"encoding/binary"

	"github.com/wippyai/account-runtime/address"
)

// Record header offsets. The payload follows the header immediately.
const (
	OffsetBorrowState = 0
	OffsetSigner      = 1
	OffsetWritable    = 2
	OffsetExecutable  = 3
	OffsetResizeDelta = 4
	OffsetKey         = 8
	OffsetOwner       = OffsetKey + address.Size
	OffsetBalance     = OffsetOwner + address.Size
	OffsetDataLen     = OffsetBalance + 8
	HeaderSize        = OffsetDataLen + 8
)

const (
	// MaxPermittedDataIncrease is the growth allowance reserved after every
	// record's payload in the input buffer.
	MaxPermittedDataIncrease = 10 * 1024
	// MaxDataLen bounds the payload of a single record.
	MaxDataLen = 10 * 1024 * 1024
	// Alignment is the boundary every record is padded to.
	Alignment = 8
)

// Header is the decoded fixed part of a record.
type Header struct {
	Key         address.Address
	Owner       address.Address
	Balance     uint64
	DataLen     uint64
	ResizeDelta int32
	BorrowState State
	Signer      bool
	Writable    bool
	Executable  bool
}

// PutHeader encodes h into the first HeaderSize bytes of dst.
func PutHeader(dst []byte, h Header) {
	_ = dst[HeaderSize-1]
	dst[OffsetBorrowState] = byte(h.BorrowState)
	dst[OffsetSigner] = boolByte(h.Signer)
	dst[OffsetWritable] = boolByte(h.Writable)
	dst[OffsetExecutable] = boolByte(h.Executable)
	binary.LittleEndian.PutUint32(dst[OffsetResizeDelta:], uint32(h.ResizeDelta))
	copy(dst[OffsetKey:OffsetOwner], h.Key[:])
	copy(dst[OffsetOwner:OffsetBalance], h.Owner[:])
	binary.LittleEndian.PutUint64(dst[OffsetBalance:], h.Balance)
	binary.LittleEndian.PutUint64(dst[OffsetDataLen:], h.DataLen)
}

// ReadHeader decodes the header at the start of src.
func ReadHeader(src []byte) Header {
	_ = src[HeaderSize-1]
	var h Header
	h.BorrowState = State(src[OffsetBorrowState])
	h.Signer = src[OffsetSigner] != 0
	h.Writable = src[OffsetWritable] != 0
	h.Executable = src[OffsetExecutable] != 0
	h.ResizeDelta = int32(binary.LittleEndian.Uint32(src[OffsetResizeDelta:]))
	copy(h.Key[:], src[OffsetKey:OffsetOwner])
	copy(h.Owner[:], src[OffsetOwner:OffsetBalance])
	h.Balance = binary.LittleEndian.Uint64(src[OffsetBalance:])
	h.DataLen = binary.LittleEndian.Uint64(src[OffsetDataLen:])
	return h
}

// RecordSpan returns the number of input bytes a record with dataLen bytes
// of payload occupies, growth allowance and padding included.
func RecordSpan(dataLen uint64) uint64 {
	return AlignUp(HeaderSize + MaxPermittedDataIncrease + dataLen)
}

// AlignUp rounds n up to Alignment.
func AlignUp(n uint64) uint64 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
