package utils

import (
	"container/list"
	"sync"
)

// An item in the LRU cache.
type LRUItem interface {
	Path() string
	Size() int64
}

// EvictFunc is called when an item is about to be evicted from the cache.
// Returning false keeps the item, for example while it is still in use.
type EvictFunc[E LRUItem] func(item E) bool

// LRU is a size bounded least recently used cache.
type LRU[E LRUItem] struct {
	mu sync.Mutex

	// The maximum total size of the items.
	maxSize int64

	// Current total size of the items.
	currentSize int64

	// Most recently used items first.
	cacheList *list.List

	// Index into cacheList by item path.
	cacheMap map[string]*list.Element

	onEvict EvictFunc[E]
}

// Creates a new LRU cache.
// A maxSize of zero or less means the cache is unbounded.
func NewLRU[E LRUItem](maxSize int64, onEvict EvictFunc[E]) *LRU[E] {
	return &LRU[E]{
		maxSize:   maxSize,
		cacheList: list.New(),
		cacheMap:  make(map[string]*list.Element),
		onEvict:   onEvict,
	}
}

// Add a new item to the cache, or refresh an existing one.
func (lru *LRU[E]) Add(item E) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if ele, ok := lru.cacheMap[item.Path()]; ok {
		lru.currentSize -= ele.Value.(E).Size()
		lru.currentSize += item.Size()
		ele.Value = item
		lru.cacheList.MoveToFront(ele)
	} else {
		lru.cacheMap[item.Path()] = lru.cacheList.PushFront(item)
		lru.currentSize += item.Size()
	}

	lru.evict()
}

// Get an item from the cache and mark it as recently used.
func (lru *LRU[E]) Get(path string) (item E, ok bool) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if ele, hit := lru.cacheMap[path]; hit {
		lru.cacheList.MoveToFront(ele)
		return ele.Value.(E), true
	}
	return
}

// Remove an item without invoking the eviction callback.
func (lru *LRU[E]) Remove(path string) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if ele, hit := lru.cacheMap[path]; hit {
		lru.removeElement(ele)
	}
}

// Total size of all items.
func (lru *LRU[E]) Size() int64 {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	return lru.currentSize
}

// Number of items.
func (lru *LRU[E]) Len() int {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	return lru.cacheList.Len()
}

// Evict items, least recently used first, until the cache fits.
// Items refused by the eviction callback are skipped.
func (lru *LRU[E]) evict() {
	if lru.maxSize <= 0 {
		return
	}

	for ele := lru.cacheList.Back(); ele != nil && lru.currentSize > lru.maxSize; {
		prev := ele.Prev()
		if lru.onEvict == nil || lru.onEvict(ele.Value.(E)) {
			lru.removeElement(ele)
		}
		ele = prev
	}
}

func (lru *LRU[E]) removeElement(e *list.Element) {
	lru.cacheList.Remove(e)
	item := e.Value.(E)
	delete(lru.cacheMap, item.Path())
	lru.currentSize -= item.Size()
}
