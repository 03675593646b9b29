package lru

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qthai16/go-murmur3/common/hashtable"
	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

type testData struct {
	KeyPerRoutines int
	Base           int
}

func key(td testData, v int) string {
	return fmt.Sprintf("key_%d", td.Base*td.KeyPerRoutines+v)
}

func lruTestSet(t *testing.T, lru *LRUTable[string, any], td testData) {
	for _, v := range rand.Perm(td.KeyPerRoutines) {
		if rand.IntN(10) < 5 {
			lru.Set(key(td, v), fmt.Sprintf("value_%d", td.Base*td.KeyPerRoutines+v))
		} else {
			lru.Set(key(td, v), td.Base*td.KeyPerRoutines+v)
		}
	}
}

func lruTestGet(t *testing.T, lru *LRUTable[string, any], td testData) {
	for _, v := range rand.Perm(td.KeyPerRoutines) {
		item, ok := lru.Get(key(td, v))
		if !ok {
			continue // evicted
		}
		switch value := item.Value.(type) {
		case string:
			assert.Equal(t, fmt.Sprintf("value_%d", td.Base*td.KeyPerRoutines+v), value)
		case int:
			assert.Equal(t, td.Base*td.KeyPerRoutines+v, value)
		default:
			t.Errorf("unexpected value %v", value)
		}
	}
}

func TestLRUTableConcurrent(t *testing.T) {
	evicted := 0
	var mu sync.Mutex
	evictCb := func(item *LRUItem[string, any]) error {
		assert.NotNil(t, item)
		mu.Lock()
		evicted++
		mu.Unlock()
		return nil
	}
	const tableSize = 100
	lruTb := NewLRUTableConf(LRUConfig[string, any]{
		TableSize:  tableSize,
		EvictRatio: 0.1,
		Builder:    hashkit.NewBuilder(),
		KeyEncoder: hashtable.StringKey,
		EvictCb:    evictCb,
	})

	totalTestKey := 200
	maxRoutines := 5
	var wg sync.WaitGroup
	for i := 0; i < maxRoutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			td := testData{KeyPerRoutines: totalTestKey / maxRoutines, Base: base}
			lruTestSet(t, lruTb, td)
			lruTestGet(t, lruTb, td)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, lruTb.Size(), tableSize)
	assert.Equal(t, totalTestKey, lruTb.Size()+evicted)
}

func TestLRUTableEvictsOldest(t *testing.T) {
	var evicted []string
	lru := NewLRUTable[int](4, func(item *LRUItem[string, int]) error {
		evicted = append(evicted, item.Key)
		return nil
	})
	for i := 0; i < 4; i++ {
		lru.Set(fmt.Sprint(i), i)
	}
	_, ok := lru.Get("0") // warm 0 so 1 is the oldest
	require.True(t, ok)

	lru.Set("4", 4)
	assert.Equal(t, []string{"1"}, evicted)
	assert.Equal(t, 4, lru.Size())

	var order []string
	lru.Traverse(func(item *LRUItem[string, int]) { order = append(order, item.Key) })
	assert.Equal(t, []string{"4", "0", "3", "2"}, order)

	order = order[:0]
	cnt := lru.RTraverse(func(item *LRUItem[string, int]) { order = append(order, item.Key) })
	assert.Equal(t, 4, cnt)
	assert.Equal(t, []string{"2", "3", "0", "4"}, order)
}

func TestLRUTableGetOrCreate(t *testing.T) {
	lru := NewLRUTable[string](10, nil)
	item, created := lru.GetOrCreate("k", "first")
	assert.True(t, created)
	assert.Equal(t, "first", item.Value)

	item, created = lru.GetOrCreate("k", "second")
	assert.False(t, created)
	assert.Equal(t, "first", item.Value)

	lru.Set("k", "third")
	item, _ = lru.Get("k")
	assert.Equal(t, "third", item.Value)
}

func TestLRUTableRemoveAndPurge(t *testing.T) {
	evicted := 0
	lru := NewLRUTable[int](10, func(*LRUItem[string, int]) error {
		evicted++
		return errors.New("callback errors are only logged")
	})
	for i := 0; i < 5; i++ {
		lru.Set(fmt.Sprint(i), i)
	}
	assert.True(t, lru.Remove("2"))
	assert.False(t, lru.Remove("2"))
	assert.Equal(t, 0, evicted, "remove does not call the callback")
	assert.Equal(t, 4, lru.Size())

	lru.Purge()
	assert.Equal(t, 4, evicted)
	assert.Equal(t, 0, lru.Size())
	_, ok := lru.Get("1")
	assert.False(t, ok)
}

func TestLRUTableIntKeys(t *testing.T) {
	lru := NewLRUTableConf(LRUConfig[uint64, string]{
		TableSize:  1000,
		KeyEncoder: hashtable.Uint64Key,
	})
	for i := uint64(0); i < 1000; i++ {
		lru.Set(i, fmt.Sprint(i))
	}
	for i := uint64(0); i < 1000; i++ {
		item, ok := lru.Get(i)
		require.True(t, ok)
		require.Equal(t, fmt.Sprint(i), item.Value)
	}
	assert.Equal(t, float32(DefaultEvictRatio), lru.EvictRatio)
}
