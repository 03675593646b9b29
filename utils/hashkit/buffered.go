package hashkit

// BufferedHasher collects writes and applies a one-shot hash function on
// Finish. Algorithms that mix the input length in before any word, such as
// MurmurHash2 and MurmurHash64A, cannot stream and go through it.
type BufferedHasher struct {
	sum func([]byte) uint64
	buf []byte
}

var _ Hasher = (*BufferedHasher)(nil)

func NewBufferedHasher(sum func([]byte) uint64) *BufferedHasher {
	return &BufferedHasher{sum: sum}
}

func (b *BufferedHasher) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *BufferedHasher) Finish() uint64 { return b.sum(b.buf) }

func (b *BufferedHasher) Reset() { b.buf = b.buf[:0] }
