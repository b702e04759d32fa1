package preview

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry struct {
	key     string
	modTime time.Time
	state   State
}

// cache keeps a handful of finished previews so re-selecting an entry
// is instant. A differing modification time invalidates the hit.
type cache struct {
	mu    sync.Mutex
	max   int
	order *list.List
	byKey map[string]*list.Element
}

func newCache(max int) *cache {
	if max <= 0 {
		max = 1
	}
	return &cache{
		max:   max,
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

func (c *cache) get(key string, modTime time.Time) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.byKey[key]
	if !ok {
		return State{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if !entry.modTime.Equal(modTime) {
		c.order.Remove(elem)
		delete(c.byKey, key)
		return State{}, false
	}
	c.order.MoveToFront(elem)
	return entry.state, true
}

func (c *cache) put(key string, modTime time.Time, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.byKey[key]; ok {
		elem.Value.(*cacheEntry).modTime = modTime
		elem.Value.(*cacheEntry).state = state
		c.order.MoveToFront(elem)
		return
	}
	c.byKey[key] = c.order.PushFront(&cacheEntry{key: key, modTime: modTime, state: state})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cacheEntry).key)
	}
}
