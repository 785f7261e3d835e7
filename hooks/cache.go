package hooks

import "sync"

// ProgramCache stores compiled expression programs. Keys are prefixed with the
// engine name, so one cache can serve several evaluators.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is an unbounded ProgramCache safe for concurrent use.
type MapCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMapCache constructs an empty cache.
func NewMapCache() *MapCache {
	return &MapCache{programs: map[string]any{}}
}

// Get implements ProgramCache.
func (c *MapCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

// Set implements ProgramCache.
func (c *MapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = map[string]any{}
	}
	c.programs[key] = value
}

// Len reports the number of cached programs.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
