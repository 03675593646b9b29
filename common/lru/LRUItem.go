package lru

type LRUItem[K comparable, V any] struct {
	Key   K
	Value V
}

func NewItem[K comparable, V any](key K, value V) *LRUItem[K, V] {
	return &LRUItem[K, V]{Key: key, Value: value}
}
