package taskapi

import "sync"

// LabelCache maps label names to remote label IDs. It is injected into the
// Client at construction time; there is no process-wide singleton.
type LabelCache struct {
	mu      sync.Mutex
	byName  map[string]string
	pending map[string]*labelFetch
}

// labelFetch is one in-flight create. Waiters block on done and then read
// id and err, which are written before done is closed.
type labelFetch struct {
	done chan struct{}
	id   string
	err  error
}

// NewLabelCache creates an empty label cache.
func NewLabelCache() *LabelCache {
	return &LabelCache{
		byName:  make(map[string]string),
		pending: make(map[string]*labelFetch),
	}
}

// GetOrCreate returns the cached ID for a label name, calling create on a
// miss and caching its result. The create call runs outside the cache
// lock: concurrent misses for the same name wait on the one in-flight
// call, misses for other names proceed independently. A failed create is
// not cached; its error is handed to every waiter.
func (c *LabelCache) GetOrCreate(name string, create func() (string, error)) (string, error) {
	c.mu.Lock()
	if id, ok := c.byName[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	if f, ok := c.pending[name]; ok {
		c.mu.Unlock()
		<-f.done
		return f.id, f.err
	}
	f := &labelFetch{done: make(chan struct{})}
	c.pending[name] = f
	c.mu.Unlock()

	f.id, f.err = create()

	c.mu.Lock()
	delete(c.pending, name)
	if f.err == nil {
		c.byName[name] = f.id
	}
	c.mu.Unlock()
	close(f.done)

	return f.id, f.err
}

// Put primes the cache with a known name→ID mapping.
func (c *LabelCache) Put(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[name] = id
}

// Len returns the number of cached labels.
func (c *LabelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byName)
}
