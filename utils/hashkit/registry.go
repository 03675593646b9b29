package hashkit

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/aviddiviner/go-murmur"
)

var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

const DefaultAlgorithm = "murmur3"

// BuilderFactory makes a keyed builder for one algorithm. Algorithms without
// a seed ignore src.
type BuilderFactory func(src SeedSource) BuildHasher

var algorithms = map[string]BuilderFactory{
	"murmur3": func(src SeedSource) BuildHasher {
		return NewSeededBuilder(src)
	},
	"murmur3-buffered": func(src SeedSource) BuildHasher {
		return NewBufferedBuilder(src)
	},
	"murmur2": func(src SeedSource) BuildHasher {
		seed := src.Seed32()
		return BuilderFunc(func() Hasher {
			return NewBufferedHasher(func(p []byte) uint64 { return uint64(murmur.MurmurHash2(p, seed)) })
		})
	},
	"murmur2a": func(src SeedSource) BuildHasher {
		seed := src.Seed32()
		return BuilderFunc(func() Hasher { return Hash32Hasher{murmur.New32(seed)} })
	},
	"murmur64a": func(src SeedSource) BuildHasher {
		seed := uint64(src.Seed32())
		return BuilderFunc(func() Hasher {
			return NewBufferedHasher(func(p []byte) uint64 { return murmur.MurmurHash64A(p, seed) })
		})
	},
	"jenkins": func(SeedSource) BuildHasher {
		return BuilderFunc(func() Hasher { return Hash32Hasher{NewJenkins32()} })
	},
	"fnv1a": func(SeedSource) BuildHasher {
		return BuilderFunc(func() Hasher { return Hash32Hasher{fnv.New32a()} })
	},
}

// LookupAlgorithm returns the builder factory registered under name.
func LookupAlgorithm(name string) (BuilderFactory, error) {
	if f, ok := algorithms[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Algorithms lists the registered algorithm names in order.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
