package session

import (
	"sync"

	"neuraswap/internal/model"
)

// DecimalsCache holds token decimals for the life of one session.
type DecimalsCache struct {
	mu   sync.RWMutex
	data map[model.TokenRef]uint8
}

func NewDecimalsCache() *DecimalsCache {
	return &DecimalsCache{data: make(map[model.TokenRef]uint8)}
}

func (c *DecimalsCache) Get(ref model.TokenRef) (uint8, bool) {
	c.mu.RLock()
	v, ok := c.data[ref]
	c.mu.RUnlock()
	return v, ok
}

func (c *DecimalsCache) Set(ref model.TokenRef, decimals uint8) {
	c.mu.Lock()
	c.data[ref] = decimals
	c.mu.Unlock()
}

func (c *DecimalsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
