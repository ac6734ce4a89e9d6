package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/errors"
)

// Names a program module must use.
const (
	ModuleEnv        = "env"
	ExportMemory     = "memory"
	ExportEntrypoint = "entrypoint"
)

// PageSize is the wasm page size in bytes.
const PageSize = 65536

// WazeroEngine compiles and runs programs on a wazero runtime.
type WazeroEngine struct {
	runtime wazero.Runtime
	log     *zap.Logger
}

// Config holds configuration for engine creation
type Config struct {
	// Logger receives engine diagnostics. Nil means the package Logger().
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration.
// Cancelling the context passed to Run terminates the running program.
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	log := Logger()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	e := &WazeroEngine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		log:     log,
	}
	if err := e.instantiateHostModule(ctx); err != nil {
		_ = e.runtime.Close(ctx)
		return nil, err
	}
	return e, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadModule compiles a program. The module must export memory and
// entrypoint(i32) -> i64, and may import only the env host functions.
func (e *WazeroEngine) LoadModule(ctx context.Context, name string, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile failed", err)
	}

	if err := validateModule(compiled); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	e.log.Debug("program compiled",
		zap.String("name", name),
		zap.Int("size", len(wasmBytes)),
		zap.Int("imports", len(compiled.ImportedFunctions())))

	return &WazeroModule{engine: e, compiled: compiled, name: name}, nil
}

func validateModule(compiled wazero.CompiledModule) error {
	if _, ok := compiled.ExportedMemories()[ExportMemory]; !ok {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path("exports", ExportMemory).
			Detail("program does not export memory").
			Build()
	}

	fn, ok := compiled.ExportedFunctions()[ExportEntrypoint]
	if !ok {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path("exports", ExportEntrypoint).
			Detail("program does not export %s", ExportEntrypoint).
			Build()
	}
	params, results := fn.ParamTypes(), fn.ResultTypes()
	if len(params) != 1 || params[0] != api.ValueTypeI32 || len(results) != 1 || results[0] != api.ValueTypeI64 {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path("exports", ExportEntrypoint).
			Detail("%s must have type (i32) -> i64", ExportEntrypoint).
			Build()
	}

	for _, imp := range compiled.ImportedFunctions() {
		module, name, _ := imp.Import()
		if module != ModuleEnv || !isHostFunc(name) {
			return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Path("imports", module, name).
				Detail("unknown import %s.%s", module, name).
				Build()
		}
	}
	return nil
}

// WazeroModule is a compiled program.
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	name     string
}

// Name returns the name the module was loaded under.
func (m *WazeroModule) Name() string {
	return m.name
}

// Binder creates the host that services one run. mem is the program's
// memory and inputAddr the address its input buffer was written to.
type Binder func(mem accountruntime.Memory, inputAddr uint64) cpi.Host

// Result is the outcome of one run.
type Result struct {
	// Input is a copy of the input region as the program left it.
	Input     []byte
	InputAddr uint64
	Status    uint64
}

// Run instantiates a fresh instance, writes input into newly grown pages,
// calls entrypoint and copies the input region back out. A trap or a
// cancelled context is returned as an error; a program-reported failure is
// a non-zero Result.Status.
func (m *WazeroModule) Run(ctx context.Context, input []byte, bind Binder) (*Result, error) {
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	defer mod.Close(ctx)

	mem := mod.Memory()
	pages := uint32((len(input) + PageSize - 1) / PageSize)
	prev, ok := mem.Grow(pages)
	if !ok {
		return nil, errors.AllocationFailed(errors.PhaseLoad, uint64(len(input)), PageSize)
	}
	inputAddr := prev * PageSize
	if !mem.Write(inputAddr, input) {
		return nil, errors.OutOfBounds(errors.PhaseLoad, uint64(inputAddr), uint64(len(input)))
	}
	debugf("program %s: input of %d bytes at 0x%x", m.name, len(input), inputAddr)

	var host cpi.Host
	if bind != nil {
		host = bind(NewWazeroMemory(mem), uint64(inputAddr))
	}

	results, err := mod.ExportedFunction(ExportEntrypoint).Call(withHost(ctx, host), uint64(inputAddr))
	if err != nil {
		return nil, errors.New(errors.PhaseProgram, errors.KindInvalidInput).
			Path(m.name).
			Cause(err).
			Detail("program trapped").
			Build()
	}

	out, ok := mem.Read(inputAddr, uint32(len(input)))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseProgram, uint64(inputAddr), uint64(len(input)))
	}
	return &Result{
		Input:     append([]byte(nil), out...),
		InputAddr: uint64(inputAddr),
		Status:    results[0],
	}, nil
}

func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// WazeroMemory wraps wazero memory to implement accountruntime.Memory.
// Addresses above 4GiB are out of bounds.
type WazeroMemory struct {
	mem api.Memory
}

// NewWazeroMemory wraps mem.
func NewWazeroMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

func (m *WazeroMemory) offset(addr, length uint64) (uint32, uint32, error) {
	if addr > 1<<32-1 || length > 1<<32-1 || addr+length > 1<<32 {
		return 0, 0, errors.OutOfBounds(errors.PhaseHost, addr, length)
	}
	return uint32(addr), uint32(length), nil
}

func (m *WazeroMemory) Read(addr uint64, length uint64) ([]byte, error) {
	off, n, err := m.offset(addr, length)
	if err != nil {
		return nil, err
	}
	data, ok := m.mem.Read(off, n)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, addr, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(addr uint64, data []byte) error {
	off, _, err := m.offset(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	if !m.mem.Write(off, data) {
		return errors.OutOfBounds(errors.PhaseHost, addr, uint64(len(data)))
	}
	return nil
}

func (m *WazeroMemory) ReadU8(addr uint64) (uint8, error) {
	data, err := m.Read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func (m *WazeroMemory) ReadU32(addr uint64) (uint32, error) {
	off, _, err := m.offset(addr, 4)
	if err != nil {
		return 0, err
	}
	val, ok := m.mem.ReadUint32Le(off)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHost, addr, 4)
	}
	return val, nil
}

func (m *WazeroMemory) ReadU64(addr uint64) (uint64, error) {
	off, _, err := m.offset(addr, 8)
	if err != nil {
		return 0, err
	}
	val, ok := m.mem.ReadUint64Le(off)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHost, addr, 8)
	}
	return val, nil
}

func (m *WazeroMemory) WriteU8(addr uint64, value uint8) error {
	return m.Write(addr, []byte{value})
}

func (m *WazeroMemory) WriteU32(addr uint64, value uint32) error {
	off, _, err := m.offset(addr, 4)
	if err != nil {
		return err
	}
	if !m.mem.WriteUint32Le(off, value) {
		return errors.OutOfBounds(errors.PhaseHost, addr, 4)
	}
	return nil
}

func (m *WazeroMemory) WriteU64(addr uint64, value uint64) error {
	off, _, err := m.offset(addr, 8)
	if err != nil {
		return err
	}
	if !m.mem.WriteUint64Le(off, value) {
		return errors.OutOfBounds(errors.PhaseHost, addr, 8)
	}
	return nil
}

// Size returns the current memory size in bytes.
func (m *WazeroMemory) Size() uint64 {
	return uint64(m.mem.Size())
}

var (
	_ accountruntime.Memory      = (*WazeroMemory)(nil)
	_ accountruntime.MemorySizer = (*WazeroMemory)(nil)
)

func (m *WazeroModule) String() string {
	return "program " + m.name
}
