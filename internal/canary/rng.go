package canary

import (
	"crypto/rand"
	"math/big"
)

// secureIntnCanary returns a uniform random int in [0, n) via
// crypto/rand, used for the catalog's Fisher-Yates shuffle (§4.6).
func secureIntnCanary(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
