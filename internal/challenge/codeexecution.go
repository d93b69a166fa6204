package challenge

import (
	"encoding/base64"
	"fmt"

	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/pkg/models"
)

// CodeExecution is the "mentally patch and re-execute" driver (§4.4.3):
// a short buggy C-family snippet plus a literal input, with the bug(s)
// described but not fixed in the emitted source.
type CodeExecution struct{}

func (CodeExecution) Name() string { return "code-execution" }

func (CodeExecution) Dimensions() []models.ChallengeDimension {
	return []models.ChallengeDimension{models.DimensionExecution, models.DimensionReasoning}
}

func (CodeExecution) TimeEstimate(difficulty models.Difficulty) TimeEstimate {
	return defaultTimeEstimate(difficulty)
}

func (d CodeExecution) Verify(answerHash, submitted string) bool {
	return VerifyBySHA256Hex(answerHash, submitted)
}

type codeTemplateName string

const (
	templateByteTransform   codeTemplateName = "byte_transform"
	templateArrayProcessing codeTemplateName = "array_processing"
	templateHashChain       codeTemplateName = "hash_chain"
)

func codeExecBugCount(difficulty models.Difficulty) int {
	switch difficulty {
	case models.DifficultyEasy, models.DifficultyMedium:
		return 1
	case models.DifficultyHard:
		return 2
	case models.DifficultyAdversarial:
		return 3
	default:
		return 1
	}
}

func codeExecEligibleTemplates(difficulty models.Difficulty) []codeTemplateName {
	if difficulty == models.DifficultyEasy {
		return []codeTemplateName{templateByteTransform, templateArrayProcessing}
	}
	return []codeTemplateName{templateByteTransform, templateArrayProcessing, templateHashChain}
}

func (CodeExecution) Generate(difficulty models.Difficulty) (models.ChallengePayload, string) {
	rng := newRandSource()
	bugCount := codeExecBugCount(difficulty)
	eligible := codeExecEligibleTemplates(difficulty)
	tmpl := eligible[rng.Intn(len(eligible))]

	dataBytes := 16
	data := secureRandomBytes(dataBytes)

	var snippet, correctOutput, bugDescriptions string
	switch tmpl {
	case templateByteTransform:
		correct := make([]byte, len(data))
		for i, b := range data {
			correct[i] = byte((int(b) * (i + 1)) % 256)
		}
		correctOutput = cryptoutil.SHA256Hex(correct)
		bugs := []string{
			"uses `mod 255` instead of `mod 256` (off-by-one modulus)",
			"uses `(i+1) << 7` instead of `(i+1)` as the multiplier (wrong shift)",
		}
		snippet = "for i in 0..len(data):\n  out[i] = (data[i] * (i + 1)) mod 255  // bug: should be mod 256\nreturn sha256_hex(out)"
		bugDescriptions = pickBugs(bugs, bugCount)

	case templateArrayProcessing:
		acc := byte(0)
		for _, b := range data {
			acc = (acc ^ b) & 0xFF
		}
		correctOutput = fmt.Sprintf("%02x", acc)
		bugs := []string{
			"uses `+` instead of `xor` to fold bytes (wrong operator)",
			"initializes the accumulator to 1 instead of 0 (wrong init)",
			"pads the result to 1 hex digit instead of 2 (wrong pad)",
		}
		snippet = "acc = 1  // bug: should start at 0\nfor b in data:\n  acc = (acc + b) & 0xFF  // bug: should be xor\nreturn hex_pad(acc, 1)  // bug: should pad to 2 digits"
		bugDescriptions = pickBugs(bugs, bugCount)

	case templateHashChain:
		rounds := 2 + rng.Intn(3) // R in [2,4]
		buf := append([]byte{}, data...)
		for i := 0; i < rounds; i++ {
			buf = Op{Kind: OpSHA256}.Apply(buf)
			buf = Op{Kind: OpReverse}.Apply(buf)
		}
		correctOutput = fmt.Sprintf("%x", buf)
		bugs := []string{
			"omits the per-round byte-reversal step (missing step)",
			"runs the loop one round short of R (off-by-one loop bound)",
		}
		snippet = fmt.Sprintf("buf = data\nfor i in 0..%d:\n  buf = sha256(buf)\n  // bug: forgot to reverse buf here each round\nreturn hex(buf)", rounds)
		bugDescriptions = pickBugs(bugs, bugCount)
	}

	answerHash := cryptoutil.SHA256Hex([]byte(correctOutput))

	instructions := fmt.Sprintf(
		"The following snippet has %d bug(s): %s\nMentally patch it, execute it against the input data, and report the exact string it should print.\n\n%s",
		bugCount, bugDescriptions, snippet,
	)

	payload := models.ChallengePayload{
		Type:         "code-execution",
		Instructions: instructions,
		Data:         base64.StdEncoding.EncodeToString(data),
		Context: map[string]interface{}{
			"template":      string(tmpl),
			"correctOutput": correctOutput,
			"answerHex":     correctOutput,
		},
	}
	return payload, answerHash
}

func pickBugs(bugs []string, count int) string {
	if count > len(bugs) {
		count = len(bugs)
	}
	out := ""
	for i := 0; i < count; i++ {
		if i > 0 {
			out += "; "
		}
		out += bugs[i]
	}
	return out
}
