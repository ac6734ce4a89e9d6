package cpi

import (
	"context"

	"github.com/wippyai/account-runtime/address"
	"github.com/wippyai/account-runtime/errors"
)

// MaxReturnData bounds the return data of one invocation.
const MaxReturnData = 1024

// SetReturnData replaces the return data of the current invocation.
func SetReturnData(ctx context.Context, env *Env, data []byte) error {
	if len(data) > MaxReturnData {
		return errors.New(errors.PhaseInvoke, errors.KindInvalidArgument).
			Value(len(data)).
			Detail("%d bytes of return data exceed %d", len(data), MaxReturnData).
			Build()
	}
	if env == nil || env.Host == nil {
		return errors.InvalidArgument(errors.PhaseInvoke, "no host attached")
	}
	return env.Host.SetReturnData(ctx, data)
}

// GetReturnData copies the most recent return data into dst, truncating to
// len(dst). It returns the number of bytes copied and the program that set
// the data; both are zero when nothing was set.
func GetReturnData(env *Env, dst []byte) (int, address.Address) {
	if env == nil || env.Host == nil {
		return 0, address.Address{}
	}
	return env.Host.ReturnData(dst)
}

// ReturnData returns a copy of the most recent return data.
func ReturnData(env *Env) ([]byte, address.Address) {
	buf := make([]byte, MaxReturnData)
	n, program := GetReturnData(env, buf)
	return buf[:n], program
}
