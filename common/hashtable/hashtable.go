// Package hashtable implements hash maps and sets keyed through a
// hashkit.BuildHasher, so the hash function (and its seed) belongs to the
// table rather than to the process.
package hashtable

import (
	"math"
	"math/bits"

	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

const (
	DefaultCapacity = 16
	DefaultMaxLoad  = 0.75
)

type entry[K comparable, V any] struct {
	key   K
	value V
	hash  uint64
	next  int32 // next entry in the bucket chain or in the free list
	used  bool
}

// Map is a separate-chaining hash map. Chains are linked by index into one
// entries slice; deleted slots go to a free list and are reused first.
//
// A Map is not safe for concurrent use.
type Map[K comparable, V any] struct {
	builder hashkit.BuildHasher
	encode  KeyEncoder[K]
	maxLoad float64

	buckets []int32
	entries []entry[K, V]
	free    int32
	len     int
	maxLen  int
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << (64 - bits.LeadingZeros64(uint64(n-1)))
}

// New returns a map with room for capacity keys before it grows.
func New[K comparable, V any](builder hashkit.BuildHasher, encode KeyEncoder[K], capacity int) *Map[K, V] {
	return NewWithLoad[K, V](builder, encode, capacity, DefaultMaxLoad)
}

// NewWithLoad is New with an explicit load factor in (0, 1].
func NewWithLoad[K comparable, V any](builder hashkit.BuildHasher, encode KeyEncoder[K], capacity int, maxLoad float64) *Map[K, V] {
	if maxLoad <= 0 || maxLoad > 1 {
		maxLoad = DefaultMaxLoad
	}
	if capacity < DefaultCapacity {
		capacity = DefaultCapacity
	}
	m := &Map[K, V]{builder: builder, encode: encode, maxLoad: maxLoad}
	m.init(nextPowerOf2(int(math.Ceil(float64(capacity) / maxLoad))))
	return m
}

// NewMurmur3 returns a map hashing with a randomly seeded Murmur3 builder.
func NewMurmur3[K comparable, V any](encode KeyEncoder[K]) *Map[K, V] {
	return New[K, V](hashkit.NewBuilder(), encode, DefaultCapacity)
}

func (m *Map[K, V]) init(nbuckets int) {
	m.buckets = make([]int32, nbuckets)
	for i := range m.buckets {
		m.buckets[i] = -1
	}
	m.maxLen = int(m.maxLoad * float64(nbuckets))
	m.entries = m.entries[:0]
	m.free = -1
	m.len = 0
}

func (m *Map[K, V]) hash(key K) uint64 {
	h := m.builder.BuildHasher()
	m.encode(h, key)
	return h.Finish()
}

func (m *Map[K, V]) bucketOf(hash uint64) int {
	return int(hash & uint64(len(m.buckets)-1))
}

func (m *Map[K, V]) find(key K, hash uint64) int32 {
	for idx := m.buckets[m.bucketOf(hash)]; idx != -1; idx = m.entries[idx].next {
		e := &m.entries[idx]
		if e.hash == hash && e.key == key {
			return idx
		}
	}
	return -1
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if idx := m.find(key, m.hash(key)); idx != -1 {
		return m.entries[idx].value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	return m.find(key, m.hash(key)) != -1
}

// Set stores value under key and reports whether the key is new.
func (m *Map[K, V]) Set(key K, value V) bool {
	hash := m.hash(key)
	if idx := m.find(key, hash); idx != -1 {
		m.entries[idx].value = value
		return false
	}
	if m.len+1 > m.maxLen {
		m.grow()
	}
	m.insert(key, value, hash)
	return true
}

func (m *Map[K, V]) insert(key K, value V, hash uint64) {
	b := m.bucketOf(hash)
	e := entry[K, V]{key: key, value: value, hash: hash, next: m.buckets[b], used: true}

	var idx int32
	if m.free != -1 {
		idx = m.free
		m.free = m.entries[idx].next
		m.entries[idx] = e
	} else {
		idx = int32(len(m.entries))
		m.entries = append(m.entries, e)
	}
	m.buckets[b] = idx
	m.len++
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	hash := m.hash(key)
	b := m.bucketOf(hash)
	prev := int32(-1)
	for idx := m.buckets[b]; idx != -1; prev, idx = idx, m.entries[idx].next {
		e := &m.entries[idx]
		if e.hash != hash || e.key != key {
			continue
		}
		if prev == -1 {
			m.buckets[b] = e.next
		} else {
			m.entries[prev].next = e.next
		}
		*e = entry[K, V]{next: m.free}
		m.free = idx
		m.len--
		return true
	}
	return false
}

func (m *Map[K, V]) grow() {
	old := m.entries
	m.entries = make([]entry[K, V], 0, len(old))
	m.init(2 * len(m.buckets))
	for i := range old {
		if e := &old[i]; e.used {
			m.insert(e.key, e.value, e.hash)
		}
	}
}

func (m *Map[K, V]) Len() int { return m.len }

// Buckets returns the current number of buckets.
func (m *Map[K, V]) Buckets() int { return len(m.buckets) }

// Range calls fn for every entry until fn returns false. The map must not be
// modified during Range.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for i := range m.entries {
		if e := &m.entries[i]; e.used {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// Reset removes every entry and keeps the bucket array.
func (m *Map[K, V]) Reset() {
	clear(m.entries)
	m.init(len(m.buckets))
}
