package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/errors"
)

// Host functions exported by the env module.
const (
	FuncLog            = "log"
	FuncSetReturnData  = "set_return_data"
	FuncGetReturnData  = "get_return_data"
	FuncRemainingUnits = "remaining_units"
	FuncInvokeSigned   = "invoke_signed"
)

type hostKey struct{}

func withHost(ctx context.Context, h cpi.Host) context.Context {
	if h == nil {
		return ctx
	}
	return context.WithValue(ctx, hostKey{}, h)
}

func hostFrom(ctx context.Context) cpi.Host {
	h, _ := ctx.Value(hostKey{}).(cpi.Host)
	return h
}

type hostFunc struct {
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

var hostFuncs = map[string]hostFunc{
	// log(ptr, len)
	FuncLog: {
		fn:     hostLog,
		params: []api.ValueType{i32, i32},
	},
	// set_return_data(ptr, len)
	FuncSetReturnData: {
		fn:     hostSetReturnData,
		params: []api.ValueType{i32, i32},
	},
	// get_return_data(ptr, len, program_ptr) -> copied
	FuncGetReturnData: {
		fn:      hostGetReturnData,
		params:  []api.ValueType{i32, i32, i32},
		results: []api.ValueType{i64},
	},
	// remaining_units() -> units
	FuncRemainingUnits: {
		fn:      hostRemainingUnits,
		results: []api.ValueType{i64},
	},
	// invoke_signed(instr, infos, infos_len, seeds, seeds_len) -> status
	FuncInvokeSigned: {
		fn:      hostInvokeSigned,
		params:  []api.ValueType{i32, i32, i32, i32, i32},
		results: []api.ValueType{i64},
	},
}

func isHostFunc(name string) bool {
	_, ok := hostFuncs[name]
	return ok
}

func (e *WazeroEngine) instantiateHostModule(ctx context.Context) error {
	builder := e.runtime.NewHostModuleBuilder(ModuleEnv)
	for name, f := range hostFuncs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Registration(errors.PhaseHost, ModuleEnv, err)
	}
	return nil
}

// Host functions panic on guest errors; wazero turns the panic into a trap
// returned from the entrypoint call.

func guestBytes(mod api.Module, ptr, length uint64) []byte {
	data, ok := mod.Memory().Read(uint32(ptr), uint32(length))
	if !ok {
		panic(errors.OutOfBounds(errors.PhaseHost, ptr, length))
	}
	return data
}

func requireHost(ctx context.Context, name string) cpi.Host {
	h := hostFrom(ctx)
	if h == nil {
		panic(errors.NotFound(errors.PhaseHost, "host for", name))
	}
	return h
}

func hostLog(ctx context.Context, mod api.Module, stack []uint64) {
	msg := guestBytes(mod, stack[0], stack[1])
	if h := hostFrom(ctx); h != nil {
		h.Log(ctx, string(msg))
		return
	}
	Logger().Info("program log", zap.ByteString("message", msg))
}

func hostSetReturnData(ctx context.Context, mod api.Module, stack []uint64) {
	h := requireHost(ctx, FuncSetReturnData)
	data := append([]byte(nil), guestBytes(mod, stack[0], stack[1])...)
	if err := h.SetReturnData(ctx, data); err != nil {
		panic(err)
	}
}

func hostGetReturnData(ctx context.Context, mod api.Module, stack []uint64) {
	h := requireHost(ctx, FuncGetReturnData)
	dst := guestBytes(mod, stack[0], stack[1])
	n, program := h.ReturnData(dst)
	if programPtr := uint32(stack[2]); programPtr != 0 && n > 0 {
		if !mod.Memory().Write(programPtr, program[:]) {
			panic(errors.OutOfBounds(errors.PhaseHost, uint64(programPtr), uint64(len(program))))
		}
	}
	stack[0] = uint64(n)
}

func hostRemainingUnits(ctx context.Context, mod api.Module, stack []uint64) {
	stack[0] = requireHost(ctx, FuncRemainingUnits).RemainingUnits()
}

func hostInvokeSigned(ctx context.Context, mod api.Module, stack []uint64) {
	h := requireHost(ctx, FuncInvokeSigned)
	stack[0] = h.InvokeSigned(ctx,
		uint64(uint32(stack[0])),
		uint64(uint32(stack[1])),
		uint64(uint32(stack[2])),
		uint64(uint32(stack[3])),
		uint64(uint32(stack[4])))
}
