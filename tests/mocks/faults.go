package mocks

import "sync"

// Faults makes a mock method fail with a chosen error until cleared.
type Faults struct {
	mu     sync.Mutex
	faults map[string]error
}

func NewFaults() *Faults {
	return &Faults{faults: make(map[string]error)}
}

func (f *Faults) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[method] = err
}

func (f *Faults) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = make(map[string]error)
}

func (f *Faults) Fault(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.faults[method]
}
