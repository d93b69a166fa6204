package challenge

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand"
)

// newPRNG returns a non-cryptographic PRNG seeded from crypto/rand, per
// §5: challenge parameter randomness (xor keys, slice bounds, template
// choice) may use a thread-local PRNG seeded from the CSPRNG, as long as
// it's independent per caller. Callers construct a fresh one per
// generate() call rather than sharing a package-level source, so two
// concurrent generators never contend on the same state.
func newPRNG() *mrand.Rand {
	var seed int64
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf))
	}
	return mrand.New(mrand.NewSource(seed))
}

// secureRandomBytes returns n cryptographically random bytes, used for
// HMAC keys embedded in generated challenges (those are "answer key
// material", not just shuffling noise).
func secureRandomBytes(n int) []byte {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for the process.
		panic(err)
	}
	return buf
}

// secureIntn returns a uniform random int in [0, n) via crypto/rand.
// Nothing in this package calls it; the canary catalog's shuffle uses
// its own copy, secureIntnCanary.
func secureIntn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
