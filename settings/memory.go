package settings

import (
	"context"
	"strings"
	"sync"
)

// MemoryProvider keeps settings in a map. It is used by tests, the YAML file
// provider and embedded setups without a database.
type MemoryProvider struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryProvider copies values into a new provider.
func NewMemoryProvider(values map[string]string) *MemoryProvider {
	p := &MemoryProvider{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

func (p *MemoryProvider) Fetch(_ context.Context, prefix string) (map[string]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]string)
	for k, v := range p.values {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

// Set stores a single value.
func (p *MemoryProvider) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

// Delete removes a single value.
func (p *MemoryProvider) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
}

// Len returns the number of stored keys.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.values)
}
