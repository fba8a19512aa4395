package permission

import (
	"errors"
	"sync"
)

// MaxCapabilities is the upper bound on distinct capability names.
const MaxCapabilities = 512

// Registry maps capability names to bit positions. Bits are assigned in
// registration order and are stable for the lifetime of the process.
type Registry struct {
	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName []string
	frozen    bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{nameToBit: make(map[string]int)}
}

// Register assigns the next free bit to name. Registering a name twice
// returns the existing bit.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, errors.New("registry frozen")
	}
	if name == "" || name == Wildcard {
		return -1, errors.New("invalid capability name")
	}
	if bit, ok := r.nameToBit[name]; ok {
		return bit, nil
	}
	if len(r.bitToName) >= MaxCapabilities {
		return -1, errors.New("capability limit exceeded")
	}

	bit := len(r.bitToName)
	r.nameToBit[name] = bit
	r.bitToName = append(r.bitToName, name)
	return bit, nil
}

// Bit returns the bit index for name, or false if it is not registered.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the capability registered at bit.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit < 0 || bit >= len(r.bitToName) {
		return "", false
	}
	return r.bitToName[bit], true
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bitToName)
}
