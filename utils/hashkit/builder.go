package hashkit

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
)

var ErrInvalidSeed = errors.New("invalid seed")

// SeedSource supplies the seed of a new builder.
type SeedSource interface {
	Seed32() uint32
}

// SeedFunc adapts a function to SeedSource.
type SeedFunc func() uint32

func (f SeedFunc) Seed32() uint32 { return f() }

// FixedSeed always yields the same seed. Use it for reproducible hashes.
type FixedSeed uint32

func (s FixedSeed) Seed32() uint32 { return uint32(s) }

// RandomSeed draws from the process-local random generator.
var RandomSeed SeedSource = SeedFunc(rand.Uint32)

// ParseSeed reads a 32-bit seed in any base strconv understands, e.g. 0x2a.
// An empty string or "random" selects RandomSeed.
func ParseSeed(s string) (SeedSource, error) {
	if s == "" || s == "random" {
		return RandomSeed, nil
	}
	seed, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSeed, s, err)
	}
	return FixedSeed(seed), nil
}

// Builder builds Murmur3 hashers sharing one seed. The seed never changes
// after construction, so a Builder can be shared between goroutines; the
// hashers it returns cannot.
type Builder struct {
	seed uint32
}

var _ BuildHasher = (*Builder)(nil)

// NewBuilder returns a builder with a random seed.
func NewBuilder() *Builder {
	return NewSeededBuilder(RandomSeed)
}

// NewSeededBuilder returns a builder seeded from src.
func NewSeededBuilder(src SeedSource) *Builder {
	return &Builder{seed: src.Seed32()}
}

func (b *Builder) Seed() uint32 { return b.seed }

// New returns a fresh hasher.
func (b *Builder) New() *Murmur3 { return NewMurmur3(b.seed) }

func (b *Builder) BuildHasher() Hasher { return b.New() }

// BufferedBuilder is Builder for BufferedMurmur3.
type BufferedBuilder struct {
	seed uint32
}

var _ BuildHasher = (*BufferedBuilder)(nil)

func NewBufferedBuilder(src SeedSource) *BufferedBuilder {
	return &BufferedBuilder{seed: src.Seed32()}
}

func (b *BufferedBuilder) Seed() uint32 { return b.seed }

func (b *BufferedBuilder) BuildHasher() Hasher { return NewBufferedMurmur3(b.seed) }
