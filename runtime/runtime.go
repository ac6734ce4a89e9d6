package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/engine"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
)

type Runtime struct {
	engine   *engine.WazeroEngine
	programs *ProgramRegistry
	store    *Store
	log      *zap.Logger
	cfg      Config
	mu       sync.Mutex
}

func New(ctx context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
		Logger:           cfg.Logger,
		MemoryLimitPages: cfg.MemoryLimitPages,
	})
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	return &Runtime{
		engine:   eng,
		programs: NewProgramRegistry(),
		store:    NewStore(),
		log:      cfg.Logger,
		cfg:      cfg,
	}, nil
}

// Close releases all runtime resources.
func (r *Runtime) Close(ctx context.Context) error {
	err := r.programs.close(ctx)
	if cerr := r.engine.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Config returns the effective configuration.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Store returns the account store executions read from and commit to.
func (r *Runtime) Store() *Store {
	return r.store
}

func (r *Runtime) Programs() *ProgramRegistry {
	return r.programs
}

// RegisterProcessor registers a Go program under id.
func (r *Runtime) RegisterProcessor(id address.Address, p entrypoint.Processor) error {
	return r.programs.RegisterProcessor(id, p)
}

// RegisterWasm compiles a wasm program and registers it under id.
func (r *Runtime) RegisterWasm(ctx context.Context, id address.Address, wasm []byte) error {
	mod, err := r.engine.LoadModule(ctx, id.String(), wasm)
	if err != nil {
		return err
	}
	if err := r.programs.RegisterModule(id, mod); err != nil {
		_ = mod.Close(ctx)
		return err
	}
	return nil
}

// Result describes one Execute call.
type Result struct {
	Logs          []string
	ReturnData    []byte
	ID            uuid.UUID
	ReturnProgram address.Address
	Status        uint64
	UnitsConsumed uint64
}

// Execute runs ix against the store. The signer and writable flags of the
// top-level metas are taken as given. On success every account change is
// committed; on failure the store is left untouched and the returned error
// carries the failure, whose status is also in Result.Status.
//
// Executions are serialized.
func (r *Runtime) Execute(ctx context.Context, ix cpi.Instruction) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := uuid.New()
	ex := &execution{
		rt:    r,
		log:   r.log.With(zap.Stringer("invocation", id)),
		meter: newMeter(r.cfg.ComputeUnits, cancel),
		tx:    newTxn(r.store),
	}

	err := ex.invoke(ctx, &ix)
	res := &Result{
		ID:            id,
		Status:        errors.Status(err),
		Logs:          ex.logs,
		ReturnData:    ex.returnData,
		ReturnProgram: ex.returnProgram,
		UnitsConsumed: ex.meter.used,
	}
	if err != nil {
		ex.log.Info("execution failed",
			zap.Stringer("program", ix.ProgramID),
			zap.Uint64("status", res.Status),
			zap.Uint64("units", res.UnitsConsumed),
			zap.Error(err))
		return res, err
	}

	ex.tx.commit()
	ex.log.Info("execution succeeded",
		zap.Stringer("program", ix.ProgramID),
		zap.Uint64("units", res.UnitsConsumed))
	return res, nil
}
