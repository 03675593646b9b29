package hashkit

import "hash"

var _ hash.Hash32 = (*Jenkins32)(nil)

// Jenkins32 is Bob Jenkins' one-at-a-time hash. The running value only sees
// the per-byte rounds; the final shifts are applied in Sum32 so that writes
// can be split anywhere.
type Jenkins32 uint32

func NewJenkins32() *Jenkins32 {
	var s Jenkins32
	return &s
}

func (s *Jenkins32) BlockSize() int { return 1 }
func (s *Jenkins32) Reset()         { *s = 0 }
func (s *Jenkins32) Size() int      { return 4 }

func (s *Jenkins32) Write(data []byte) (int, error) {
	h := uint32(*s)
	for _, b := range data {
		h = jenkinsRound(h, b)
	}
	*s = Jenkins32(h)
	return len(data), nil
}

func (s *Jenkins32) Sum32() uint32 { return jenkinsFinal(uint32(*s)) }

func (s *Jenkins32) Sum(in []byte) []byte {
	v := s.Sum32()
	return append(in, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func jenkinsRound(h uint32, b byte) uint32 {
	h += uint32(b)
	h += h << 10
	h ^= h >> 6
	return h
}

func jenkinsFinal(h uint32) uint32 {
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

// Jenkins returns the one-at-a-time hash of data.
func Jenkins(data []byte) uint32 {
	var h uint32
	for _, b := range data {
		h = jenkinsRound(h, b)
	}
	return jenkinsFinal(h)
}
