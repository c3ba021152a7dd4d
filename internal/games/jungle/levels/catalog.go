package levels

import (
	"fmt"
	"sync"
)

// Catalog is the ordered set of playable levels. It is safe for concurrent
// use and can be swapped wholesale when level files change on disk.
type Catalog struct {
	mu     sync.RWMutex
	levels []Level
	byID   map[string]int
}

// NewCatalog creates a catalog from levels. Order is preserved.
func NewCatalog(levels []Level) *Catalog {
	c := &Catalog{}
	c.Replace(levels)
	return c
}

// LoadCatalog loads every level from l into a new catalog.
func LoadCatalog(l *Loader) (*Catalog, error) {
	levels, err := l.LoadAll()
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("levels: no levels found")
	}
	return NewCatalog(levels), nil
}

// Replace swaps the catalog contents.
func (c *Catalog) Replace(levels []Level) {
	byID := make(map[string]int, len(levels))
	for i, l := range levels {
		byID[l.ID] = i
	}
	c.mu.Lock()
	c.levels = append([]Level(nil), levels...)
	c.byID = byID
	c.mu.Unlock()
}

// List returns the levels in campaign order.
func (c *Catalog) List() []Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Level(nil), c.levels...)
}

// Len returns the number of levels.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.levels)
}

// Get returns the level with the given id.
func (c *Catalog) Get(id string) (Level, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Level{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.levels[i], nil
}

// First returns the first level of the campaign.
func (c *Catalog) First() (Level, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.levels) == 0 {
		return Level{}, ErrNotFound
	}
	return c.levels[0], nil
}

// Next returns the level after id. The second result is false when id is the
// last level or unknown.
func (c *Catalog) Next(id string) (Level, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.levels) {
		return Level{}, false
	}
	return c.levels[i+1], true
}

// Index returns the 0-based campaign position of id, or -1.
func (c *Catalog) Index(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return -1
	}
	return i
}
