package hashtable

import "github.com/Qthai16/go-murmur3/utils/hashkit"

// Set is a Map without values.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

func NewSet[K comparable](builder hashkit.BuildHasher, encode KeyEncoder[K], capacity int) *Set[K] {
	return &Set[K]{m: New[K, struct{}](builder, encode, capacity)}
}

// NewMurmur3Set returns a set hashing with a randomly seeded Murmur3 builder.
func NewMurmur3Set[K comparable](encode KeyEncoder[K]) *Set[K] {
	return &Set[K]{m: NewMurmur3[K, struct{}](encode)}
}

// Add inserts key and reports whether it was missing.
func (s *Set[K]) Add(key K) bool { return s.m.Set(key, struct{}{}) }

func (s *Set[K]) Contains(key K) bool { return s.m.Contains(key) }

// Remove deletes key and reports whether it was present.
func (s *Set[K]) Remove(key K) bool { return s.m.Delete(key) }

func (s *Set[K]) Len() int { return s.m.Len() }

func (s *Set[K]) Reset() { s.m.Reset() }

func (s *Set[K]) Range(fn func(key K) bool) {
	s.m.Range(func(key K, _ struct{}) bool { return fn(key) })
}
