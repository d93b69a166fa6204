package challenge

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/pkg/models"
)

// CryptoNL is the "natural-language crypto pipeline" driver (§4.4.1): a
// sequence of N byte operations, each phrased in plain English, chained
// over a random data buffer.
type CryptoNL struct{}

func (CryptoNL) Name() string { return "crypto-nl" }

func (CryptoNL) Dimensions() []models.ChallengeDimension {
	return []models.ChallengeDimension{models.DimensionReasoning, models.DimensionExecution}
}

func (CryptoNL) TimeEstimate(difficulty models.Difficulty) TimeEstimate {
	return defaultTimeEstimate(difficulty)
}

func (d CryptoNL) Verify(answerHash, submitted string) bool {
	return VerifyBySHA256Hex(answerHash, submitted)
}

func cryptoNLParams(difficulty models.Difficulty) (n, dataBytes int) {
	switch difficulty {
	case models.DifficultyEasy:
		return 1, 16
	case models.DifficultyMedium:
		return 2, 32
	case models.DifficultyHard:
		return 4, 64
	case models.DifficultyAdversarial:
		return 6, 128
	default:
		return 1, 16
	}
}

func cryptoNLOpPool(difficulty models.Difficulty) []OpKind {
	pool := []OpKind{OpXOR, OpReverse, OpSlice, OpSortAsc, OpRotateLeft}
	if difficulty == models.DifficultyMedium || difficulty == models.DifficultyHard || difficulty == models.DifficultyAdversarial {
		pool = append(pool, OpSHA256, OpBitwiseNot)
	}
	if difficulty == models.DifficultyHard || difficulty == models.DifficultyAdversarial {
		pool = append(pool, OpRepeat, OpHMACSHA256, OpBase64Enc)
	}
	return pool
}

// instantiate picks parameters for kind against a buffer of the given
// current length, following the constraints in §4.4.1.
func instantiate(rng *randSource, kind OpKind, curLen int) Op {
	switch kind {
	case OpXOR:
		return Op{Kind: OpXOR, XORKey: byte(1 + rng.Intn(255))}
	case OpReverse:
		return Op{Kind: OpReverse}
	case OpSlice:
		if curLen < 8 {
			return Op{Kind: OpReverse} // buffer too small to slice meaningfully; degrade gracefully
		}
		start := rng.Intn(curLen/4 + 1)
		maxEnd := start + curLen/2
		if maxEnd > curLen {
			maxEnd = curLen
		}
		minEnd := start + 4
		if minEnd > maxEnd {
			minEnd = maxEnd
		}
		end := minEnd
		if maxEnd > minEnd {
			end = minEnd + rng.Intn(maxEnd-minEnd+1)
		}
		return Op{Kind: OpSlice, Start: start, End: end}
	case OpSortAsc:
		return Op{Kind: OpSortAsc}
	case OpRotateLeft:
		max := curLen / 2
		if max < 1 {
			max = 1
		}
		return Op{Kind: OpRotateLeft, Rotate: 1 + rng.Intn(max)}
	case OpSHA256:
		return Op{Kind: OpSHA256}
	case OpBitwiseNot:
		return Op{Kind: OpBitwiseNot}
	case OpRepeat:
		return Op{Kind: OpRepeat, Repeat: 2 + rng.Intn(2)}
	case OpHMACSHA256:
		return Op{Kind: OpHMACSHA256, HMACKey: secureRandomBytes(16)}
	case OpBase64Enc:
		return Op{Kind: OpBase64Enc}
	default:
		return Op{Kind: OpReverse}
	}
}

// randSource wraps *mrand.Rand behind the narrow Intn surface this
// package's generators need.
type randSource struct {
	intn func(int) int
}

func (r *randSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.intn(n)
}

func newRandSource() *randSource {
	rng := newPRNG()
	return &randSource{intn: rng.Intn}
}

func (CryptoNL) Generate(difficulty models.Difficulty) (models.ChallengePayload, string) {
	n, dataBytes := cryptoNLParams(difficulty)
	pool := cryptoNLOpPool(difficulty)
	rng := newRandSource()

	buf := secureRandomBytes(dataBytes)
	original := append([]byte{}, buf...)

	var lines []string
	for i := 0; i < n; i++ {
		kind := pool[rng.Intn(len(pool))]
		op := instantiate(rng, kind, len(buf))
		variant := rng.Intn(3)
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, op.Describe(variant)))
		// base64_encode's ASCII output becomes the next op's raw byte
		// buffer directly (§4.4.1) — Apply already returns those ASCII
		// bytes, so no extra handling is needed here.
		buf = op.Apply(buf)
	}

	answerHex := finalAnswerHex(buf)
	answerHash := cryptoutil.SHA256Hex([]byte(answerHex))

	instructions := "Apply the following byte operations, in order, to the data below, then report the lowercase hex SHA-256 digest of the final bytes:\n" +
		strings.Join(lines, "\n")

	payload := models.ChallengePayload{
		Type:         "crypto-nl",
		Instructions: instructions,
		Data:         base64.StdEncoding.EncodeToString(original),
		Context: map[string]interface{}{
			"dataHex":   hex.EncodeToString(original),
			"answerHex": answerHex,
		},
	}
	return payload, answerHash
}
