package engine

import (
	"bytes"
	"context"
	"testing"

	accountruntime "github.com/wippyai/account-runtime"
	"github.com/wippyai/account-runtime/account"
	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/errors"
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func section(id byte, parts ...[]byte) []byte {
	var content []byte
	for _, p := range parts {
		content = append(content, p...)
	}
	return append([]byte{id, byte(len(content))}, content...)
}

func name(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

func raw(b ...byte) []byte { return b }

// program assembles a module whose entrypoint runs body. Every import is an
// env function of type (i32, i32) -> ().
func program(imports []string, body ...byte) []byte {
	out := append([]byte{}, wasmHeader...)
	// type 0: (i32) -> i64, type 1: (i32, i32) -> ()
	out = append(out, section(1, raw(2), raw(0x60, 1, 0x7f, 1, 0x7e), raw(0x60, 2, 0x7f, 0x7f, 0))...)
	if len(imports) > 0 {
		parts := [][]byte{raw(byte(len(imports)))}
		for _, imp := range imports {
			parts = append(parts, name(ModuleEnv), name(imp), raw(0x00, 0x01))
		}
		out = append(out, section(2, parts...)...)
	}
	out = append(out, section(3, raw(1, 0))...)
	out = append(out, section(5, raw(1, 0, 1))...)
	out = append(out, section(7, raw(2), name(ExportMemory), raw(2, 0), name(ExportEntrypoint), raw(0, byte(len(imports))))...)
	out = append(out, section(10, raw(1, byte(len(body)+1), 0), body)...)
	return out
}

var (
	returnStatus3 = []byte{0x42, 0x03, 0x0b}
	returnSuccess = []byte{0x42, 0x00, 0x0b}
	// i64.store 42 at input+88: the balance of the first record.
	storeBalance = []byte{0x20, 0x00, 0x42, 0x2a, 0x37, 0x03, 0x58, 0x42, 0x00, 0x0b}
	// call import 0 with (input, 8).
	callWithCount = []byte{0x20, 0x00, 0x41, 0x08, 0x10, 0x00, 0x42, 0x00, 0x0b}
)

type testHost struct {
	logs       [][]byte
	returnData []byte
}

func (h *testHost) InvokeSigned(ctx context.Context, instr, infos, infosLen, seeds, seedsLen uint64) uint64 {
	return errors.Status(errors.InvalidArgument(errors.PhaseInvoke, "not supported"))
}

func (h *testHost) SetReturnData(ctx context.Context, data []byte) error {
	h.returnData = data
	return nil
}

func (h *testHost) ReturnData(dst []byte) (int, address.Address) {
	return copy(dst, h.returnData), address.Address{}
}

func (h *testHost) RemainingUnits() uint64 { return 0 }

func (h *testHost) Log(ctx context.Context, msg string) {
	h.logs = append(h.logs, []byte(msg))
}

func testInput(t *testing.T) []byte {
	t.Helper()
	buf, err := entrypoint.Serialize([]entrypoint.InputAccount{
		{Key: address.Address{1}, Owner: address.Address{9}, Balance: 5, Writable: true},
	}, []byte("ix"), address.Address{9})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return buf
}

func newEngine(t *testing.T) *WazeroEngine {
	t.Helper()
	ctx := context.Background()
	engine, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine failed: %v", err)
	}
	t.Cleanup(func() { engine.Close(ctx) })
	return engine
}

func load(t *testing.T, engine *WazeroEngine, wasm []byte) *WazeroModule {
	t.Helper()
	mod, err := engine.LoadModule(context.Background(), "test", wasm)
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	return mod
}

func TestNewWazeroEngineWithConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewWazeroEngineWithConfig(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("NewWazeroEngineWithConfig failed: %v", err)
			}
			defer engine.Close(ctx)

			if engine.runtime.Module(ModuleEnv) == nil {
				t.Error("env host module should be instantiated")
			}
		})
	}
}

func TestLoadModule_Rejects(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		wasm []byte
	}{
		{"not wasm", []byte("hello")},
		{"no exports", wasmHeader},
		{"unknown import", program([]string{"nope"}, returnSuccess...)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.LoadModule(ctx, tc.name, tc.wasm); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRun_Status(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		body []byte
		want uint64
	}{
		{"success", returnSuccess, 0},
		{"failure", returnStatus3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mod := load(t, engine, program(nil, tc.body...))
			defer mod.Close(ctx)

			res, err := mod.Run(ctx, testInput(t), nil)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if res.Status != tc.want {
				t.Errorf("status = %d, want %d", res.Status, tc.want)
			}
			if res.InputAddr%PageSize != 0 || res.InputAddr == 0 {
				t.Errorf("input written at 0x%x, want a fresh page", res.InputAddr)
			}
		})
	}
}

func TestRun_ReturnsModifiedInput(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	mod := load(t, engine, program(nil, storeBalance...))
	defer mod.Close(ctx)

	res, err := mod.Run(ctx, testInput(t), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	_, accounts, data := entrypoint.ParseAt(res.InputAddr, res.Input, make([]account.Account, 1))
	if got := accounts[0].Balance(); got != 42 {
		t.Errorf("balance = %d, want 42", got)
	}
	if !bytes.Equal(data, []byte("ix")) {
		t.Errorf("data = %q, want %q", data, "ix")
	}
	if accounts[0].Addr() != res.InputAddr+16 {
		t.Errorf("record at 0x%x, want 0x%x", accounts[0].Addr(), res.InputAddr+16)
	}
}

func TestRun_HostFunctions(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	input := testInput(t)

	tests := []struct {
		name  string
		check func(t *testing.T, h *testHost)
	}{
		{FuncSetReturnData, func(t *testing.T, h *testHost) {
			if !bytes.Equal(h.returnData, input[:8]) {
				t.Errorf("return data = %x, want %x", h.returnData, input[:8])
			}
		}},
		{FuncLog, func(t *testing.T, h *testHost) {
			if len(h.logs) != 1 || !bytes.Equal(h.logs[0], input[:8]) {
				t.Errorf("logs = %x", h.logs)
			}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mod := load(t, engine, program([]string{tc.name}, callWithCount...))
			defer mod.Close(ctx)

			host := &testHost{}
			var boundAt uint64
			res, err := mod.Run(ctx, input, func(mem accountruntime.Memory, inputAddr uint64) cpi.Host {
				boundAt = inputAddr
				return host
			})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if boundAt != res.InputAddr {
				t.Errorf("bound at 0x%x, ran at 0x%x", boundAt, res.InputAddr)
			}
			tc.check(t, host)
		})
	}
}

func TestRun_HostCallWithoutHostTraps(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	mod := load(t, engine, program([]string{FuncSetReturnData}, callWithCount...))
	defer mod.Close(ctx)

	if _, err := mod.Run(ctx, testInput(t), nil); err == nil {
		t.Fatal("expected trap")
	}
}

func TestWazeroMemory_RejectsWideAddresses(t *testing.T) {
	m := &WazeroMemory{}
	if _, err := m.Read(accountruntime.InputStart, 1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("Read err = %v, want out of bounds", err)
	}
	if err := m.WriteU64(1<<32-4, 1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("WriteU64 err = %v, want out of bounds", err)
	}
}
