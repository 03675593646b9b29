package lru

import (
	"sync"

	"github.com/Qthai16/go-murmur3/common"
	"github.com/Qthai16/go-murmur3/common/hashtable"
	"github.com/Qthai16/go-murmur3/utils"
	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

type (
	EvictItemCb[K comparable, V any]    func(item *LRUItem[K, V]) error
	TraverseItemFn[K comparable, V any] func(item *LRUItem[K, V])

	LRUConfig[K comparable, V any] struct {
		TableSize  int     // max stored items
		EvictRatio float32 // share of TableSize evicted at once when full
		Builder    hashkit.BuildHasher
		KeyEncoder hashtable.KeyEncoder[K]
		EvictCb    EvictItemCb[K, V]
	}

	// LRUTable is a size-bounded cache. Recency is kept in a deque, lookups
	// go through a hashtable.Map keyed with the configured builder.
	LRUTable[K comparable, V any] struct {
		LRUConfig[K, V]
		index   *hashtable.Map[K, *common.Element[*LRUItem[K, V]]]
		lruList *common.Deque[*LRUItem[K, V]]
		mu      sync.Mutex
	}
)

const (
	DefaultEvictRatio = 0.1
	maxEvictOnce      = 1000
)

// NewLRUTable returns a cache of tableSize string-keyed items hashed with a
// randomly seeded Murmur3 builder.
func NewLRUTable[V any](tableSize int, evictCb EvictItemCb[string, V]) *LRUTable[string, V] {
	return NewLRUTableConf(LRUConfig[string, V]{
		TableSize:  tableSize,
		EvictRatio: DefaultEvictRatio,
		Builder:    hashkit.NewBuilder(),
		KeyEncoder: hashtable.StringKey,
		EvictCb:    evictCb,
	})
}

func NewLRUTableConf[K comparable, V any](config LRUConfig[K, V]) *LRUTable[K, V] {
	if config.TableSize <= 0 {
		config.TableSize = hashtable.DefaultCapacity
	}
	if config.EvictRatio <= 0 || config.EvictRatio > 1 {
		config.EvictRatio = DefaultEvictRatio
	}
	if config.Builder == nil {
		config.Builder = hashkit.NewBuilder()
	}
	return &LRUTable[K, V]{
		LRUConfig: config,
		index:     hashtable.New[K, *common.Element[*LRUItem[K, V]]](config.Builder, config.KeyEncoder, config.TableSize),
		lruList:   common.NewDeque[*LRUItem[K, V]](),
	}
}

// Get returns the item under key and marks it most recently used.
func (p *LRUTable[K, V]) Get(key K) (*LRUItem[K, V], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.index.Get(key)
	if !ok {
		return nil, false
	}
	p.lruList.MoveToFront(e) // warmup
	return e.Value, true
}

// GetOrCreate returns the item under key, storing value first if the key is
// missing. The bool reports whether the item was created.
func (p *LRUTable[K, V]) GetOrCreate(key K, value V) (*LRUItem[K, V], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.index.Get(key); ok {
		p.lruList.MoveToFront(e)
		return e.Value, false
	}
	return p.insert(key, value), true
}

// Set stores value under key and marks it most recently used.
func (p *LRUTable[K, V]) Set(key K, value V) *LRUItem[K, V] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.index.Get(key); ok {
		e.Value.Value = value
		p.lruList.MoveToFront(e)
		return e.Value
	}
	return p.insert(key, value)
}

func (p *LRUTable[K, V]) insert(key K, value V) *LRUItem[K, V] {
	p.evictIfFull()
	item := NewItem(key, value)
	p.index.Set(key, p.lruList.PushFrontValue(item))
	return item
}

// Remove drops key without calling the evict callback.
func (p *LRUTable[K, V]) Remove(key K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.index.Get(key)
	if !ok {
		return false
	}
	p.lruList.Remove(e)
	p.index.Delete(key)
	return true
}

// Purge evicts every item.
func (p *LRUTable[K, V]) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.lruList.Size() > 0 {
		p.evictOldest()
	}
}

func (p *LRUTable[K, V]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index.Len()
}

// Traverse visits items from latest to oldest.
func (p *LRUTable[K, V]) Traverse(fn TraverseItemFn[K, V]) (cnt int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.lruList.Front(); e != nil; e = p.lruList.Next(e) {
		fn(e.Value)
		cnt++
	}
	return cnt
}

// RTraverse visits items from oldest to latest.
func (p *LRUTable[K, V]) RTraverse(fn TraverseItemFn[K, V]) (cnt int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.lruList.Back(); e != nil; e = p.lruList.Prev(e) {
		fn(e.Value)
		cnt++
	}
	return cnt
}

func (p *LRUTable[K, V]) evictOldest() {
	e := p.lruList.PopBack()
	if e == nil {
		return
	}
	p.index.Delete(e.Value.Key)
	if p.EvictCb == nil {
		return
	}
	if err := p.EvictCb(e.Value); err != nil {
		utils.LogWarn("[lru] evict callback failed, err: %v", err)
	}
}

func (p *LRUTable[K, V]) evictIfFull() {
	if p.index.Len()+1 <= p.TableSize {
		return
	}
	evictCnt := int(min(float32(p.TableSize)*p.EvictRatio, maxEvictOnce))
	if evictCnt < 1 {
		evictCnt = 1
	}
	for i := 0; i < evictCnt; i++ {
		p.evictOldest()
	}
}
