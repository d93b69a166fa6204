package challenge

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/pkg/models"
)

// MultiStep is the composed-sequence driver (§4.4.4): a chain of
// compute steps over hex strings, optionally interleaved with
// memory-recall and memory-apply steps that reference earlier results.
type MultiStep struct{}

func (MultiStep) Name() string { return "multi-step" }

func (MultiStep) Dimensions() []models.ChallengeDimension {
	return []models.ChallengeDimension{models.DimensionMemory, models.DimensionExecution, models.DimensionReasoning}
}

func (MultiStep) TimeEstimate(difficulty models.Difficulty) TimeEstimate {
	return defaultTimeEstimate(difficulty)
}

func (d MultiStep) Verify(answerHash, submitted string) bool {
	return VerifyBySHA256Hex(answerHash, submitted)
}

type multiStepParams struct {
	dataBytes, computeSteps, memoryRecall, memoryApply int
}

func multiStepParamsFor(difficulty models.Difficulty) multiStepParams {
	switch difficulty {
	case models.DifficultyEasy:
		return multiStepParams{32, 3, 0, 0}
	case models.DifficultyMedium:
		return multiStepParams{32, 3, 1, 0}
	case models.DifficultyHard:
		return multiStepParams{64, 3, 1, 1}
	case models.DifficultyAdversarial:
		return multiStepParams{64, 4, 2, 1}
	default:
		return multiStepParams{32, 3, 0, 0}
	}
}

type stepOpKind string

const (
	stepSHA256 stepOpKind = "sha256"
	stepXOR    stepOpKind = "xor"
	stepHMAC   stepOpKind = "hmac"
	stepSlice  stepOpKind = "slice"
)

type stepDef struct {
	kind     stepOpKind
	xorKey   byte
	hmacKey  []byte
	start    int
	end      int
}

func (s stepDef) describe(index int) string {
	switch s.kind {
	case stepSHA256:
		return fmt.Sprintf("R%d = sha256(R%d)", index, index-1)
	case stepXOR:
		return fmt.Sprintf("R%d = xor(R%d, key=%d)", index, index-1, s.xorKey)
	case stepHMAC:
		return fmt.Sprintf("R%d = hmac_sha256(R%d, key=%s)", index, index-1, hex.EncodeToString(s.hmacKey))
	case stepSlice:
		return fmt.Sprintf("R%d = slice(R%d, %d, %d)", index, index-1, s.start, s.end)
	}
	return ""
}

// run applies the step to the hex-decoded input, returning the hex of
// the result — a step's input is always the previous step's hex result
// (or the raw data hex for step 0).
func (s stepDef) run(inputHex string) string {
	in, err := hex.DecodeString(inputHex)
	if err != nil {
		in = []byte(inputHex)
	}
	switch s.kind {
	case stepSHA256:
		return hex.EncodeToString(Op{Kind: OpSHA256}.Apply(in))
	case stepXOR:
		return hex.EncodeToString(Op{Kind: OpXOR, XORKey: s.xorKey}.Apply(in))
	case stepHMAC:
		return hex.EncodeToString(Op{Kind: OpHMACSHA256, HMACKey: s.hmacKey}.Apply(in))
	case stepSlice:
		return hex.EncodeToString(Op{Kind: OpSlice, Start: s.start, End: s.end}.Apply(in))
	}
	return inputHex
}

func (MultiStep) Generate(difficulty models.Difficulty) (models.ChallengePayload, string) {
	p := multiStepParamsFor(difficulty)
	rng := newRandSource()

	data := secureRandomBytes(p.dataBytes)
	dataHex := hex.EncodeToString(data)

	results := []string{dataHex} // R_-1 conceptually; results[i+1] = R_i
	defs := make([]stepDef, 0, p.computeSteps) // defs[i] is the stepDef that produced R_i
	var lines []string

	for i := 0; i < p.computeSteps; i++ {
		eligible := []stepOpKind{stepSHA256, stepXOR}
		if i > 0 {
			eligible = []stepOpKind{stepSHA256, stepXOR, stepHMAC, stepSlice}
		}
		kind := eligible[rng.Intn(len(eligible))]
		var def stepDef
		def.kind = kind
		switch kind {
		case stepXOR:
			def.xorKey = byte(1 + rng.Intn(255))
		case stepHMAC:
			if i == 0 {
				def.hmacKey = secureRandomBytes(16)
			} else {
				prevBytes, _ := hex.DecodeString(results[len(results)-1])
				def.hmacKey = prevBytes
			}
		case stepSlice:
			curLen := len(results[len(results)-1]) / 2
			if curLen < 8 {
				def.kind = stepSHA256
			} else {
				start := rng.Intn(curLen/4 + 1)
				end := start + 4 + rng.Intn(curLen/2+1)
				if end > curLen {
					end = curLen
				}
				if end < start+1 {
					end = start + 1
				}
				def.start, def.end = start, end
			}
		}
		r := def.run(results[len(results)-1])
		results = append(results, r)
		defs = append(defs, def)
		lines = append(lines, def.describe(i))
	}

	// results[1:] are R_0..R_{computeSteps-1}; memory steps reference
	// R<step+1> meaning results[step+1].
	var memoryLines []string
	for i := 0; i < p.memoryRecall; i++ {
		step := rng.Intn(p.computeSteps)
		target := results[step+1]
		targetBytes, _ := hex.DecodeString(target)
		byteIdx := 0
		if len(targetBytes) > 0 {
			byteIdx = rng.Intn(len(targetBytes))
		}
		var val byte
		if byteIdx < len(targetBytes) {
			val = targetBytes[byteIdx]
		}
		recallHex := fmt.Sprintf("%02x", val)
		results = append(results, recallHex)
		memoryLines = append(memoryLines, fmt.Sprintf("recall byte %d of R%d -> %s", byteIdx, step, "(two hex digits)"))
	}

	for i := 0; i < p.memoryApply; i++ {
		step := rng.Intn(p.computeSteps)
		// Re-run the operation definition that produced R<step> on the
		// immediately previous result in the chain.
		redo := defs[step]
		r := redo.run(results[len(results)-1])
		results = append(results, r)
		memoryLines = append(memoryLines, fmt.Sprintf("re-apply the operation that produced R%d to the previous result", step))
	}

	concatenated := strings.Join(results[1:], "")
	finalAnswerHex := cryptoutil.SHA256Hex([]byte(concatenated))
	answerHash := cryptoutil.SHA256Hex([]byte(finalAnswerHex))

	instructions := "Carry out the following steps in order, where each R_i is the hex result of step i (step 0 consumes the raw data hex):\n" +
		strings.Join(lines, "\n")
	if len(memoryLines) > 0 {
		instructions += "\nThen:\n" + strings.Join(memoryLines, "\n")
	}
	instructions += "\nFinally report the lowercase hex SHA-256 digest of all R_i hex strings concatenated in order, with no separators."

	payload := models.ChallengePayload{
		Type:         "multi-step",
		Instructions: instructions,
		Data:         base64.StdEncoding.EncodeToString(data),
		Context: map[string]interface{}{
			"dataHex":   dataHex,
			"answerHex": finalAnswerHex,
		},
	}
	return payload, answerHash
}
