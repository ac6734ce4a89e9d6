package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/account-runtime/arena"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
)

// Defaults applied to zero Config fields.
const (
	DefaultComputeUnits   = 200_000
	DefaultMaxInvokeDepth = 4
)

// Compute costs charged by the runtime.
const (
	CostInvoke     = 1000
	CostLog        = 100
	CostReturnData = 100
)

// Config holds runtime configuration. The zero value is usable.
type Config struct {
	// Logger receives execution and program logs. Nil means no logging.
	Logger *zap.Logger

	// ComputeUnits is the budget of one Execute call.
	ComputeUnits uint64

	// HeapSize is the heap given to each Go processor frame, in bytes.
	HeapSize int

	// Capacity bounds the account handles parsed for Go processors.
	Capacity int

	// MaxInvokeDepth bounds nesting; the top-level call has depth 1.
	MaxInvokeDepth int

	// MemoryLimitPages caps wasm program memory, see engine.Config.
	MemoryLimitPages uint32
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.ComputeUnits == 0 {
		c.ComputeUnits = DefaultComputeUnits
	}
	if c.HeapSize == 0 {
		c.HeapSize = arena.DefaultSize
	}
	if c.Capacity == 0 {
		c.Capacity = entrypoint.MaxAccounts
	}
	if c.MaxInvokeDepth == 0 {
		c.MaxInvokeDepth = DefaultMaxInvokeDepth
	}
	return c
}

func (c Config) validate() error {
	if c.HeapSize < 0 || c.HeapSize > arena.MaxSize {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path("heap_size").
			Value(c.HeapSize).
			Detail("heap size must be between 0 and %d", arena.MaxSize).
			Build()
	}
	if c.Capacity < 0 {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path("capacity").
			Value(c.Capacity).
			Detail("capacity cannot be negative").
			Build()
	}
	if c.MaxInvokeDepth < 0 {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path("max_invoke_depth").
			Value(c.MaxInvokeDepth).
			Detail("max invoke depth cannot be negative").
			Build()
	}
	return nil
}
