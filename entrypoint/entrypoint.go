package entrypoint

import (
	"context"

	"github.com/wippyai/account-runtime/cpi"
	"github.com/wippyai/account-runtime/errors"
)

// Processor is a program.
type Processor interface {
	Process(ctx context.Context, env *cpi.Env, in *Input) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, env *cpi.Env, in *Input) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, env *cpi.Env, in *Input) error {
	return f(ctx, env, in)
}

// Execute parses buf and hands the result to p. capacity bounds the number
// of account handles produced.
func Execute(ctx context.Context, env *cpi.Env, buf []byte, capacity int, p Processor) error {
	return p.Process(ctx, env, ParseInput(buf, capacity))
}

// Run is Execute returning the numeric status of the outcome.
func Run(ctx context.Context, env *cpi.Env, buf []byte, capacity int, p Processor) uint64 {
	return errors.Status(Execute(ctx, env, buf, capacity, p))
}
