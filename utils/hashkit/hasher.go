// Package hashkit provides streaming 32-bit hash functions and the builders
// that hand them out to hash-based containers.
//
// The main hash is MurmurHash3 x86_32 ([Murmur3]). A [Builder] draws one
// random seed when it is created and builds every hasher with it, so equal
// keys hash equally for the lifetime of the builder while a different
// builder (or process) gets an unrelated hash function.
package hashkit

import "hash"

// Hasher is an incremental hash: feed it with Write, read it with Finish.
// Write never returns an error. Finish does not change the state and may be
// called any number of times.
type Hasher interface {
	Write(p []byte) (int, error)
	Finish() uint64
}

// BuildHasher hands out fresh hashers that all belong to the same keyed
// hash function.
type BuildHasher interface {
	BuildHasher() Hasher
}

// BuilderFunc adapts a plain constructor to BuildHasher.
type BuilderFunc func() Hasher

func (f BuilderFunc) BuildHasher() Hasher { return f() }

// Hash32Hasher lets any hash.Hash32 act as a Hasher.
type Hash32Hasher struct {
	hash.Hash32
}

func (h Hash32Hasher) Finish() uint64 { return uint64(h.Sum32()) }

// HashBytes hashes p with a fresh hasher from b.
func HashBytes(b BuildHasher, p []byte) uint64 {
	h := b.BuildHasher()
	h.Write(p)
	return h.Finish()
}

// HashString hashes s with a fresh hasher from b.
func HashString(b BuildHasher, s string) uint64 {
	return HashBytes(b, []byte(s))
}
