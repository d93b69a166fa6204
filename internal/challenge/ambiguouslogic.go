package challenge

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/pkg/models"
)

// AmbiguousLogic is the disambiguation driver (§4.4.2): three
// intentionally ambiguous instruction templates ("lucky number",
// "most famous constant", "is big?"), optionally chained, each
// exporting score-weighted alternate answers alongside its primary.
type AmbiguousLogic struct{}

func (AmbiguousLogic) Name() string { return "ambiguous-logic" }

func (AmbiguousLogic) Dimensions() []models.ChallengeDimension {
	return []models.ChallengeDimension{models.DimensionAmbiguity, models.DimensionReasoning}
}

func (AmbiguousLogic) TimeEstimate(difficulty models.Difficulty) TimeEstimate {
	return defaultTimeEstimate(difficulty)
}

func (d AmbiguousLogic) Verify(answerHash, submitted string) bool {
	return VerifyBySHA256Hex(answerHash, submitted)
}

// altOutcome is one scored interpretation of a template's instruction.
type altOutcome struct {
	buf   []byte
	score float64
}

// ambiguousTemplate names one of the three fixed templates and the two
// paraphrasings it can be rendered as.
type ambiguousTemplate struct {
	name       string
	phrasings  [2]string
	apply      func(buf []byte) (primary altOutcome, alternates []altOutcome)
}

var luckyNumberTemplate = ambiguousTemplate{
	name: "lucky-number",
	phrasings: [2]string{
		"If the data length equals the lucky number, XOR every byte with it; otherwise XOR every byte with 13.",
		"Check whether the byte count matches the lucky number — if so XOR with it, if not XOR with 13.",
	},
	apply: func(buf []byte) (altOutcome, []altOutcome) {
		xorWith := func(k byte) []byte {
			out := make([]byte, len(buf))
			for i, b := range buf {
				out[i] = b ^ k
			}
			return out
		}
		primaryKey := byte(13)
		if len(buf) == 7 {
			primaryKey = 7
		}
		primary := altOutcome{buf: xorWith(primaryKey), score: 1.0}

		alts := []altOutcome{
			{buf: xorWith(pick(len(buf) == 3, byte(3), byte(13))), score: 0.6},
			{buf: xorWith(pick(len(buf) == 8, byte(8), byte(13))), score: 0.6},
			{buf: xorWith(pick(len(buf) == 13, byte(13), byte(13))), score: 0.7},
		}
		return primary, alts
	},
}

func pick(cond bool, a, b byte) byte {
	if cond {
		return a
	}
	return b
}

var famousConstantTemplate = ambiguousTemplate{
	name: "famous-constant",
	phrasings: [2]string{
		"XOR every byte with the most famous mathematical constant's rounded value.",
		"Apply an XOR using whichever constant is most commonly considered 'the' famous one.",
	},
	apply: func(buf []byte) (altOutcome, []altOutcome) {
		xorWith := func(k byte) []byte {
			out := make([]byte, len(buf))
			for i, b := range buf {
				out[i] = b ^ k
			}
			return out
		}
		primary := altOutcome{buf: xorWith(31), score: 1.0} // pi
		alts := []altOutcome{
			{buf: xorWith(27), score: 0.8}, // e
			{buf: xorWith(16), score: 0.6}, // phi
		}
		return primary, alts
	},
}

var bigSmallTemplate = ambiguousTemplate{
	name: "big-small",
	phrasings: [2]string{
		"If the data 'is big', reverse it; otherwise sort it ascending.",
		"Decide whether the data counts as big — reverse if so, sort ascending if not.",
	},
	apply: func(buf []byte) (altOutcome, []altOutcome) {
		reverse := func(b []byte) []byte {
			out := make([]byte, len(b))
			for i, v := range b {
				out[len(b)-1-i] = v
			}
			return out
		}
		sortAsc := func(b []byte) []byte {
			out := append([]byte{}, b...)
			sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
			return out
		}
		transform := func(threshold int) []byte {
			if len(buf) > 0 && int(buf[0]) > threshold {
				return reverse(buf)
			}
			return sortAsc(buf)
		}
		primary := altOutcome{buf: transform(127), score: 1.0}
		alts := []altOutcome{
			{buf: transform(100), score: 0.8},
			{buf: transform(200), score: 0.7},
		}
		return primary, alts
	},
}

var ambiguousTemplates = []ambiguousTemplate{luckyNumberTemplate, famousConstantTemplate, bigSmallTemplate}

func ambiguousLogicParams(difficulty models.Difficulty) (dataBytes, templatesSelected int) {
	switch difficulty {
	case models.DifficultyEasy:
		return 8, 1
	case models.DifficultyMedium:
		return 16, 1
	case models.DifficultyHard:
		return 32, 2
	case models.DifficultyAdversarial:
		return 64, 3
	default:
		return 8, 1
	}
}

func (AmbiguousLogic) Generate(difficulty models.Difficulty) (models.ChallengePayload, string) {
	dataBytes, templatesSelected := ambiguousLogicParams(difficulty)
	rng := newRandSource()

	buf := secureRandomBytes(dataBytes)
	original := append([]byte{}, buf...)

	chosen := make([]ambiguousTemplate, templatesSelected)
	order := rng.Intn(len(ambiguousTemplates))
	for i := 0; i < templatesSelected; i++ {
		chosen[i] = ambiguousTemplates[(order+i)%len(ambiguousTemplates)]
	}

	// combos tracks the running set of (buf, score) candidates as each
	// template chains onto the primary output of the one before it —
	// the Cartesian-product-then-dedup rule from §4.4.2.
	combos := []altOutcome{{buf: buf, score: 1.0}}
	var instructionLines []string
	for i, tmpl := range chosen {
		phrasing := tmpl.phrasings[rng.Intn(2)]
		instructionLines = append(instructionLines, fmt.Sprintf("%d. [%s] %s", i+1, tmpl.name, phrasing))

		primary, alts := tmpl.apply(combos[0].buf)
		var next []altOutcome
		for _, c := range combos {
			p, a := primary, alts
			if len(combos) > 1 {
				p, a = tmpl.apply(c.buf)
			}
			next = append(next, altOutcome{buf: p.buf, score: c.score * p.score})
			for _, alt := range a {
				next = append(next, altOutcome{buf: alt.buf, score: c.score * alt.score})
			}
		}
		combos = dedupByAnswerKeepMax(next)
	}

	sort.Slice(combos, func(i, j int) bool { return combos[i].score > combos[j].score })
	primaryBuf := combos[0].buf
	primaryAnswerHex := cryptoutil.SHA256Hex(primaryBuf)
	answerHash := cryptoutil.SHA256Hex([]byte(primaryAnswerHex))

	acceptable := make([]map[string]interface{}, 0, len(combos)-1)
	for _, c := range combos[1:] {
		acceptable = append(acceptable, map[string]interface{}{
			"hash":  cryptoutil.SHA256Hex(c.buf),
			"score": round3(c.score),
		})
	}

	instructions := "Resolve the following deliberately ambiguous instructions, in order, then report the lowercase hex SHA-256 digest of the final bytes:\n" + joinLines(instructionLines)

	payload := models.ChallengePayload{
		Type:         "ambiguous-logic",
		Instructions: instructions,
		Data:         base64.StdEncoding.EncodeToString(original),
		Context: map[string]interface{}{
			"answerHex":           primaryAnswerHex,
			"acceptableAlternates": acceptable,
		},
	}
	return payload, answerHash
}

func dedupByAnswerKeepMax(outcomes []altOutcome) []altOutcome {
	best := make(map[string]altOutcome)
	for _, o := range outcomes {
		key := string(o.buf)
		if existing, ok := best[key]; !ok || o.score > existing.score {
			best[key] = o
		}
	}
	out := make([]altOutcome, 0, len(best))
	for _, v := range best {
		out = append(out, v)
	}
	return out
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
