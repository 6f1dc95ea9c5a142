package sdruntime

import (
	"crypto/rand"
	"encoding/binary"
)

// maxSeed bounds random seeds to 32 bits, the widest range every backend accepts.
const maxSeed = 1<<32 - 1

// RandomSeed returns a random seed in [0, 2^32).
func RandomSeed() int64 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is not worth failing a generation over
		return 42
	}
	return int64(binary.LittleEndian.Uint32(buf[:]))
}

// ResolveSeed returns seed unchanged when it is non-negative, and a fresh
// random seed otherwise.
func ResolveSeed(seed int64) int64 {
	if seed < 0 {
		return RandomSeed()
	}
	return seed
}
