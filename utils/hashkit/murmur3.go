package hashkit

import (
	"encoding/binary"
	"hash"
	"math/bits"
)

var (
	_ hash.Hash32 = (*Murmur3)(nil)
	_ hash.Hash64 = (*Murmur3)(nil)
	_ Hasher      = (*Murmur3)(nil)
)

const (
	c1 uint32 = 0xcc9e2d51
	c2 uint32 = 0x1b873593

	r1 = 15
	r2 = 13
	m  = 5
	n  = 0xe6546b64

	fmix1 uint32 = 0x85ebca6b
	fmix2 uint32 = 0xc2b2ae35
)

func scramble(k uint32) uint32 {
	k *= c1
	k = bits.RotateLeft32(k, r1)
	k *= c2
	return k
}

func fold(h, k uint32) uint32 {
	h ^= scramble(k)
	h = bits.RotateLeft32(h, r2)
	return h*m + n
}

// tailWord reads 0-3 bytes as a little-endian word, high bytes zero.
func tailWord(tail []byte) (k uint32) {
	switch len(tail) {
	case 3:
		k ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k ^= uint32(tail[0])
	}
	return k
}

// finalize mixes tail and length into h and runs the avalanche.
// A length of 2^32 bytes or more wraps.
func finalize(h uint32, tail []byte, length uint64) uint32 {
	if len(tail) > 0 {
		h ^= scramble(tailWord(tail))
	}
	h ^= uint32(length)

	h ^= h >> 16
	h *= fmix1
	h ^= h >> 13
	h *= fmix2
	h ^= h >> 16
	return h
}

// Murmur3 is the running state of a MurmurHash3 x86_32 computation.
//
// It does not hold a hash value but a partially digested byte stream: h only
// reflects whole 4-byte words, the 0-3 trailing bytes wait in rem until more
// input completes them or Finish mixes them in. Words are always read
// little-endian, so results are portable across architectures.
//
// A Murmur3 must not be used from several goroutines at once.
type Murmur3 struct {
	seed   uint32
	h      uint32
	rem    [4]byte
	remLen int
	length uint64 // bytes folded into h
}

// NewMurmur3 returns a streaming hasher whose accumulator starts at seed.
func NewMurmur3(seed uint32) *Murmur3 {
	return &Murmur3{seed: seed, h: seed}
}

// Seed returns the seed the hasher was created with.
func (d *Murmur3) Seed() uint32 { return d.seed }

func (d *Murmur3) BlockSize() int { return 4 }
func (d *Murmur3) Size() int      { return 4 }

// Reset drops all written data and restores the initial seed state.
func (d *Murmur3) Reset() {
	d.h = d.seed
	d.remLen = 0
	d.length = 0
}

// Write feeds p into the hash. It never fails.
func (d *Murmur3) Write(p []byte) (int, error) {
	written := len(p)

	if d.remLen > 0 {
		need := 4 - d.remLen
		if len(p) < need {
			d.remLen += copy(d.rem[d.remLen:], p)
			return written, nil
		}
		copy(d.rem[d.remLen:], p[:need])
		d.h = fold(d.h, binary.LittleEndian.Uint32(d.rem[:]))
		d.length += 4
		d.remLen = 0
		p = p[need:]
	}

	h := d.h
	for len(p) >= 4 {
		h = fold(h, binary.LittleEndian.Uint32(p))
		p = p[4:]
		d.length += 4
	}
	d.h = h

	d.remLen = copy(d.rem[:], p)
	return written, nil
}

// WriteString is Write for strings without the []byte conversion at call sites.
func (d *Murmur3) WriteString(s string) (int, error) {
	return d.Write([]byte(s))
}

// Sum32 returns the hash of everything written so far. The state is not
// modified; more data may be written afterwards.
func (d *Murmur3) Sum32() uint32 {
	return finalize(d.h, d.rem[:d.remLen], d.length+uint64(d.remLen))
}

// Sum64 returns Sum32 zero-extended to 64 bits.
func (d *Murmur3) Sum64() uint64 { return uint64(d.Sum32()) }

// Finish is Sum64.
func (d *Murmur3) Finish() uint64 { return d.Sum64() }

// Sum appends the big-endian Sum32 to b.
func (d *Murmur3) Sum(b []byte) []byte {
	v := d.Sum32()
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Sum32WithSeed returns the MurmurHash3 x86_32 of data.
func Sum32WithSeed(data []byte, seed uint32) uint32 {
	h := seed
	nblocks := len(data) / 4
	for i := 0; i < nblocks; i++ {
		h = fold(h, binary.LittleEndian.Uint32(data[i*4:]))
	}
	return finalize(h, data[nblocks*4:], uint64(len(data)))
}

// Sum32 returns the MurmurHash3 x86_32 of data with seed 0.
func Sum32(data []byte) uint32 { return Sum32WithSeed(data, 0) }
