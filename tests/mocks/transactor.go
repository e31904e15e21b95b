package mocks

import (
	"context"
	"sync/atomic"
)

// Transactor runs fn directly. It does not roll back; tests that need
// rollback semantics run against postgres.
type Transactor struct {
	*Faults
	calls atomic.Int32
}

func NewTransactor() *Transactor {
	return &Transactor{Faults: NewFaults()}
}

func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls.Add(1)
	if err := t.Fault("WithTx"); err != nil {
		return err
	}
	return fn(ctx)
}

func (t *Transactor) Calls() int {
	return int(t.calls.Load())
}
