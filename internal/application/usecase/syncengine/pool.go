package syncengine

import "sync"

// Pool keeps one engine per key so that concurrent requests for the same
// store share single-flight cycles and status.
type Pool struct {
	mu      sync.Mutex
	engines map[string]*Engine
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{engines: make(map[string]*Engine)}
}

// Get returns the engine of key, calling build on first use.
func (p *Pool) Get(key string, build func() (*Engine, error)) (*Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.engines[key]; ok {
		return e, nil
	}
	e, err := build()
	if err != nil {
		return nil, err
	}
	p.engines[key] = e
	return e, nil
}

// Remove forgets the engine of key.
func (p *Pool) Remove(key string) {
	p.mu.Lock()
	delete(p.engines, key)
	p.mu.Unlock()
}

// Len returns how many engines are held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.engines)
}
