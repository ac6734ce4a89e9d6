package runtime

import (
	"context"

	"github.com/wippyai/account-runtime/errors"
)

// meter is the compute budget of one execution. Exhaustion is sticky and
// cancels the execution context, which stops a running wasm program.
type meter struct {
	cancel    context.CancelFunc
	limit     uint64
	used      uint64
	exhausted bool
}

func newMeter(limit uint64, cancel context.CancelFunc) *meter {
	return &meter{limit: limit, cancel: cancel}
}

func (m *meter) consume(units uint64) error {
	if m.exhausted {
		return m.err()
	}
	if units > m.limit-m.used {
		m.used = m.limit
		m.exhausted = true
		if m.cancel != nil {
			m.cancel()
		}
		return m.err()
	}
	m.used += units
	return nil
}

func (m *meter) remaining() uint64 {
	return m.limit - m.used
}

func (m *meter) err() error {
	return errors.New(errors.PhaseRuntime, errors.KindBudgetExceeded).
		Value(m.limit).
		Detail("compute budget of %d units exhausted", m.limit).
		Build()
}
