package hashtable

import (
	"encoding/binary"

	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

// KeyEncoder writes the bytes that identify key into h. Equal keys must
// produce equal bytes.
type KeyEncoder[K any] func(h hashkit.Hasher, key K)

func StringKey(h hashkit.Hasher, key string) {
	h.Write([]byte(key))
}

func Uint64Key(h hashkit.Hasher, key uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	h.Write(b[:])
}

func Uint32Key(h hashkit.Hasher, key uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], key)
	h.Write(b[:])
}

func Int64Key(h hashkit.Hasher, key int64) { Uint64Key(h, uint64(key)) }

func IntKey(h hashkit.Hasher, key int) { Uint64Key(h, uint64(key)) }
