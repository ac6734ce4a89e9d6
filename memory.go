package accountruntime

// Virtual region base addresses. Every invocation frame sees its heap and
// its input buffer at the same addresses, so ABI pointers written by one
// frame are meaningful to the host that services it.
const (
	HeapStart  uint64 = 0x3_0000_0000
	InputStart uint64 = 0x4_0000_0000
)

// Memory is an addressable view of an invocation's memory.
type Memory interface {
	Read(addr uint64, length uint64) ([]byte, error)
	Write(addr uint64, data []byte) error
	ReadU8(addr uint64) (uint8, error)
	ReadU32(addr uint64) (uint32, error)
	ReadU64(addr uint64) (uint64, error)
	WriteU8(addr uint64, value uint8) error
	WriteU32(addr uint64, value uint32) error
	WriteU64(addr uint64, value uint64) error
}

// MemorySizer provides the number of mapped bytes.
type MemorySizer interface {
	Size() uint64
}

// Allocator hands out memory for ABI structures. Implementations may treat
// Free as a no-op.
type Allocator interface {
	Alloc(size, align uint64) (uint64, error)
	Free(addr, size, align uint64)
}
