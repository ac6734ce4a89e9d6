package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/account-runtime/engine"
	"github.com/wippyai/account-runtime/fixture"
	"github.com/wippyai/account-runtime/runtime"
)

func main() {
	var (
		input       = flag.String("input", "", "Input buffer fixture (.bin, .lz4 or .xz)")
		capacity    = flag.Int("capacity", 0, "Maximum number of records to decode")
		list        = flag.Bool("list", false, "List the buffer's records and exit")
		program     = flag.String("program", "", "Wasm program to execute the buffer's instruction with")
		configPath  = flag.String("config", "", "TOML configuration file")
		output      = flag.String("out", "", "Write the post-execution buffer to this fixture")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -input <buffer> [-list] [-capacity n]")
		fmt.Fprintln(os.Stderr, "       run -input <buffer> -program <file.wasm> [-config run.toml] [-out <buffer>]")
		fmt.Fprintln(os.Stderr, "       run -input <buffer> -i  (interactive mode)")
		os.Exit(1)
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *capacity > 0 {
		cfg.Capacity = *capacity
		cfg.Runtime.Capacity = *capacity
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}
	engine.SetLogger(log)
	cfg.Runtime.Logger = log

	if err := run(*input, *program, *output, cfg, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inputPath, programPath, outputPath string, cfg cliConfig, listOnly, interactive bool) error {
	ctx := context.Background()

	buf, err := fixture.Load(inputPath)
	if err != nil {
		return err
	}
	snap, err := decode(buf, cfg.Capacity)
	if err != nil {
		return fmt.Errorf("decode %s: %w", inputPath, err)
	}

	if listOnly || (programPath == "" && !interactive) {
		printSnapshot(os.Stdout, snap)
		return nil
	}
	if programPath == "" {
		return runInteractive(inputPath, snap, nil)
	}

	rt, err := runtime.New(ctx, cfg.Runtime)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	for _, acct := range snap.stored() {
		rt.Store().Put(acct)
	}
	if err := registerFile(ctx, rt, snap, programPath); err != nil {
		return err
	}
	for id, path := range cfg.Programs {
		if id == snap.Program {
			continue
		}
		wasm, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read program %s: %w", id, err)
		}
		if err := rt.RegisterWasm(ctx, id, wasm); err != nil {
			return fmt.Errorf("register program %s: %w", id, err)
		}
	}

	res, execErr := rt.Execute(ctx, snap.instruction())
	if interactive {
		return runInteractive(inputPath, snap, &outcome{res: res, err: execErr, store: rt.Store()})
	}

	printResult(os.Stdout, res, snap, rt.Store())
	if execErr != nil {
		return fmt.Errorf("execute: %w", execErr)
	}

	if outputPath != "" {
		out, err := snap.rebuild(rt.Store())
		if err != nil {
			return err
		}
		if err := fixture.Save(outputPath, out); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", outputPath)
	}
	return nil
}

func registerFile(ctx context.Context, rt *runtime.Runtime, snap *snapshot, path string) error {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read program: %w", err)
	}
	if err := rt.RegisterWasm(ctx, snap.Program, wasm); err != nil {
		return fmt.Errorf("register program: %w", err)
	}
	return nil
}
