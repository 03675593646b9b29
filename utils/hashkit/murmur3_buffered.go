package hashkit

import "hash"

var (
	_ hash.Hash32 = (*BufferedMurmur3)(nil)
	_ Hasher      = (*BufferedMurmur3)(nil)
)

// BufferedMurmur3 keeps every written byte and runs MurmurHash3 over the
// whole buffer on each Sum32. Memory grows with the input; prefer Murmur3
// unless the full input is needed anyway.
type BufferedMurmur3 struct {
	seed uint32
	buf  []byte
}

func NewBufferedMurmur3(seed uint32) *BufferedMurmur3 {
	return &BufferedMurmur3{seed: seed}
}

func (d *BufferedMurmur3) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

func (d *BufferedMurmur3) Reset()         { d.buf = d.buf[:0] }
func (d *BufferedMurmur3) Size() int      { return 4 }
func (d *BufferedMurmur3) BlockSize() int { return 1 }
func (d *BufferedMurmur3) Len() int       { return len(d.buf) }

func (d *BufferedMurmur3) Sum32() uint32 { return Sum32WithSeed(d.buf, d.seed) }
func (d *BufferedMurmur3) Finish() uint64 {
	return uint64(d.Sum32())
}

func (d *BufferedMurmur3) Sum(b []byte) []byte {
	v := d.Sum32()
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
