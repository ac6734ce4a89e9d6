package runtime

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/engine"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
)

// Program is a registered program: either a Go processor or a compiled
// wasm module.
type Program struct {
	processor entrypoint.Processor
	module    *engine.WazeroModule
	ID        address.Address
}

// IsWasm reports whether the program runs on the wasm engine.
func (p *Program) IsWasm() bool {
	return p.module != nil
}

// ProgramRegistry maps program addresses to programs.
type ProgramRegistry struct {
	programs map[address.Address]*Program
	mu       sync.RWMutex
}

func NewProgramRegistry() *ProgramRegistry {
	return &ProgramRegistry{
		programs: make(map[address.Address]*Program),
	}
}

func (r *ProgramRegistry) register(p *Program) error {
	if p.ID.IsZero() {
		return errors.InvalidInput(errors.PhaseHost, "program address cannot be zero")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.programs[p.ID]; ok {
		return errors.Registration(errors.PhaseHost, p.ID.String(),
			errors.New(errors.PhaseHost, errors.KindAlreadyInitialized).Detail("already registered").Build())
	}
	r.programs[p.ID] = p
	return nil
}

// RegisterProcessor registers a Go processor under id.
func (r *ProgramRegistry) RegisterProcessor(id address.Address, p entrypoint.Processor) error {
	if p == nil {
		return errors.InvalidInput(errors.PhaseHost, "processor cannot be nil")
	}
	return r.register(&Program{ID: id, processor: p})
}

// RegisterModule registers a compiled wasm module under id.
func (r *ProgramRegistry) RegisterModule(id address.Address, m *engine.WazeroModule) error {
	if m == nil {
		return errors.InvalidInput(errors.PhaseHost, "module cannot be nil")
	}
	return r.register(&Program{ID: id, module: m})
}

// Lookup returns the program registered under id.
func (r *ProgramRegistry) Lookup(id address.Address) (*Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	return p, ok
}

// IDs returns the registered addresses in ascending order.
func (r *ProgramRegistry) IDs() []address.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]address.Address, 0, len(r.programs))
	for id := range r.programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}

func (r *ProgramRegistry) close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, p := range r.programs {
		if p.module == nil {
			continue
		}
		if err := p.module.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
