package database

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"

	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
)

const defaultCachedEntries = 1000

type fillEntryFn func(id *bc.Hash) (*state.RecordEntry, error)

func newEntryCache(size int, fillFn fillEntryFn) *entryCache {
	if size <= 0 {
		size = defaultCachedEntries
	}
	return &entryCache{
		lru:    lru.New(size),
		fillFn: fillFn,
	}
}

type entryCache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	fillFn fillEntryFn
	single singleflight.Group
}

func (c *entryCache) lookup(id *bc.Hash) (*state.RecordEntry, error) {
	if e, ok := c.get(id); ok {
		return e, nil
	}

	entry, err := c.single.Do("entry:"+id.String(), func() (interface{}, error) {
		e, err := c.fillFn(id)
		if err != nil {
			return nil, err
		}

		c.add(e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return entry.(*state.RecordEntry), nil
}

func (c *entryCache) get(id *bc.Hash) (*state.RecordEntry, bool) {
	c.mu.Lock()
	entry, ok := c.lru.Get(*id)
	c.mu.Unlock()
	if entry == nil {
		return nil, false
	}
	return entry.(*state.RecordEntry), ok
}

func (c *entryCache) add(entry *state.RecordEntry) {
	c.mu.Lock()
	c.lru.Add(entry.ID, entry)
	c.mu.Unlock()
}

func (c *entryCache) remove(id bc.Hash) {
	c.mu.Lock()
	c.lru.Remove(id)
	c.mu.Unlock()
}
