package challenge

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/pkg/models"
)

var allDrivers = []Driver{CryptoNL{}, AmbiguousLogic{}, CodeExecution{}, MultiStep{}}

var allDifficulties = []models.Difficulty{
	models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, models.DifficultyAdversarial,
}

// TestAnswerDeterminism is property P1: verify(answer_hash, correct_answer) = true
// where correct_answer is reconstructed from the private context.
func TestAnswerDeterminism(t *testing.T) {
	for _, d := range allDrivers {
		for _, diff := range allDifficulties {
			t.Run(d.Name()+"/"+string(diff), func(t *testing.T) {
				payload, answerHash := d.Generate(diff)
				answerHex, ok := payload.Context["answerHex"].(string)
				if !ok {
					t.Fatalf("payload.Context missing answerHex")
				}
				if !d.Verify(answerHash, answerHex) {
					t.Fatalf("Verify(answerHash, answerHex) = false, want true")
				}
			})
		}
	}
}

// TestVerifyIsDoubleHashCheck is property P2: verify(h, s) iff
// SHA256hex(s) = h, for every driver.
func TestVerifyIsDoubleHashCheck(t *testing.T) {
	for _, d := range allDrivers {
		t.Run(d.Name(), func(t *testing.T) {
			s := "some-candidate-answer"
			h := cryptoutil.SHA256Hex([]byte(s))
			if !d.Verify(h, s) {
				t.Fatalf("Verify(SHA256Hex(s), s) = false, want true")
			}
			if d.Verify(h, s+"x") {
				t.Fatalf("Verify(h, tampered) = true, want false")
			}
		})
	}
}

func TestGeneratePayloadNeverLeaksContext(t *testing.T) {
	for _, d := range allDrivers {
		payload, _ := d.Generate(models.DifficultyMedium)
		pub := payload.PublicPayload()
		if pub.Context != nil {
			t.Fatalf("%s: PublicPayload() leaked context: %+v", d.Name(), pub.Context)
		}
		if _, err := base64.StdEncoding.DecodeString(pub.Data); err != nil {
			t.Fatalf("%s: payload.Data is not valid base64: %v", d.Name(), err)
		}
	}
}

func TestRegistrySelectByDimension(t *testing.T) {
	reg := NewRegistry()
	top := reg.Select([]models.ChallengeDimension{models.DimensionMemory}, 1)
	if len(top) != 1 || top[0].Name() != "multi-step" {
		t.Fatalf("Select(memory) = %v, want [multi-step]", namesOf(top))
	}
}

func TestRegistrySelectUnspecifiedDimensionsReturnsAll(t *testing.T) {
	reg := NewRegistry()
	top := reg.Select(nil, 4)
	if len(top) != 4 {
		t.Fatalf("Select(nil, 4) returned %d drivers, want 4", len(top))
	}
}

func namesOf(ds []Driver) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

func TestOpApplyXORReverseRoundTrip(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03}
	xored := Op{Kind: OpXOR, XORKey: 0xFF}.Apply(buf)
	back := Op{Kind: OpXOR, XORKey: 0xFF}.Apply(xored)
	if hex.EncodeToString(back) != hex.EncodeToString(buf) {
		t.Fatalf("double XOR = %x, want %x", back, buf)
	}
}
