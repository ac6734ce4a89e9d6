package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/engine"
	"github.com/wippyai/account-runtime/entrypoint"
	"github.com/wippyai/account-runtime/runtime"
)

type fileConfig struct {
	Capacity       int               `toml:"capacity"`
	ComputeUnits   uint64            `toml:"compute_units"`
	HeapSize       string            `toml:"heap_size"`
	MaxInvokeDepth int               `toml:"max_invoke_depth"`
	MemoryLimit    string            `toml:"memory_limit"`
	Programs       map[string]string `toml:"programs"`
}

// cliConfig is the effective configuration of one run.
type cliConfig struct {
	Programs map[address.Address]string
	Runtime  runtime.Config
	Capacity int
}

func defaultConfig() cliConfig {
	return cliConfig{
		Capacity: entrypoint.MaxAccounts,
		Programs: map[address.Address]string{},
	}
}

func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("capacity") {
		if raw.Capacity <= 0 {
			return cliConfig{}, fmt.Errorf("capacity must be positive, got %d", raw.Capacity)
		}
		cfg.Capacity = raw.Capacity
	}

	if meta.IsDefined("compute_units") {
		cfg.Runtime.ComputeUnits = raw.ComputeUnits
	}

	if meta.IsDefined("heap_size") {
		n, err := units.RAMInBytes(strings.TrimSpace(raw.HeapSize))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse heap_size: %w", err)
		}
		cfg.Runtime.HeapSize = int(n)
	}

	if meta.IsDefined("max_invoke_depth") {
		cfg.Runtime.MaxInvokeDepth = raw.MaxInvokeDepth
	}

	if meta.IsDefined("memory_limit") {
		n, err := units.RAMInBytes(strings.TrimSpace(raw.MemoryLimit))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse memory_limit: %w", err)
		}
		cfg.Runtime.MemoryLimitPages = uint32((n + engine.PageSize - 1) / engine.PageSize)
	}

	for key, path := range raw.Programs {
		id, err := address.Parse(strings.TrimSpace(key))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse program address %q: %w", key, err)
		}
		cfg.Programs[id] = strings.TrimSpace(path)
	}

	cfg.Runtime.Capacity = cfg.Capacity
	return cfg, nil
}
