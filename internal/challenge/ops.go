package challenge

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/agentauth/core/internal/cryptoutil"
)

// OpKind is the closed set of byte-buffer transforms the crypto-nl and
// multi-step drivers compose (§4.4.1, §4.4.4).
type OpKind string

const (
	OpXOR         OpKind = "xor"
	OpReverse     OpKind = "reverse"
	OpSlice       OpKind = "slice"
	OpSortAsc     OpKind = "sort_asc"
	OpRotateLeft  OpKind = "rotate_left"
	OpSHA256      OpKind = "sha256"
	OpBitwiseNot  OpKind = "bitwise_not"
	OpRepeat      OpKind = "repeat"
	OpHMACSHA256  OpKind = "hmac_sha256"
	OpBase64Enc   OpKind = "base64_encode"
)

// Op is one instantiated operation with its chosen parameters — a
// closed sum type dispatched on Kind, per the "tagged variants over
// class hierarchies" design note.
type Op struct {
	Kind   OpKind
	XORKey byte
	Start  int
	End    int
	Rotate int
	Repeat int
	HMACKey []byte
}

// Apply runs the operation against buf, returning the transformed
// bytes. Randomness lives only in parameter selection (done by the
// caller when constructing Op); Apply itself is deterministic.
func (op Op) Apply(buf []byte) []byte {
	switch op.Kind {
	case OpXOR:
		out := make([]byte, len(buf))
		for i, b := range buf {
			out[i] = b ^ op.XORKey
		}
		return out
	case OpReverse:
		out := make([]byte, len(buf))
		for i, b := range buf {
			out[len(buf)-1-i] = b
		}
		return out
	case OpSlice:
		end := op.End
		if end > len(buf) {
			end = len(buf)
		}
		start := op.Start
		if start > end {
			start = end
		}
		out := make([]byte, end-start)
		copy(out, buf[start:end])
		return out
	case OpSortAsc:
		out := make([]byte, len(buf))
		copy(out, buf)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	case OpRotateLeft:
		if len(buf) == 0 {
			return buf
		}
		n := op.Rotate % len(buf)
		if n < 0 {
			n += len(buf)
		}
		return append(append([]byte{}, buf[n:]...), buf[:n]...)
	case OpSHA256:
		sum := sha256.Sum256(buf)
		return sum[:]
	case OpBitwiseNot:
		out := make([]byte, len(buf))
		for i, b := range buf {
			out[i] = ^b
		}
		return out
	case OpRepeat:
		times := op.Repeat
		if times < 1 {
			times = 1
		}
		out := make([]byte, 0, len(buf)*times)
		for i := 0; i < times; i++ {
			out = append(out, buf...)
		}
		return out
	case OpHMACSHA256:
		mac := hmac.New(sha256.New, op.HMACKey)
		mac.Write(buf)
		return mac.Sum(nil)
	case OpBase64Enc:
		enc := base64.StdEncoding.EncodeToString(buf)
		return []byte(enc)
	default:
		return buf
	}
}

// Describe phrases op in one of several natural-language variants,
// used by crypto-nl to avoid a single rigid instruction template.
// variant selects among the phrasings; callers pass a value derived
// from the challenge's PRNG so repeated generations don't always read
// identically.
func (op Op) Describe(variant int) string {
	switch op.Kind {
	case OpXOR:
		phrasings := []string{
			"XOR every byte with the key %d",
			"apply an exclusive-or against %d to each byte",
			"flip bits using XOR key %d",
		}
		return fmt.Sprintf(phrasings[variant%len(phrasings)], op.XORKey)
	case OpReverse:
		phrasings := []string{
			"reverse the byte order",
			"flip the buffer end-to-end",
		}
		return phrasings[variant%len(phrasings)]
	case OpSlice:
		phrasings := []string{
			"take the slice from byte %d up to (not including) byte %d",
			"keep only bytes %d through %d-1",
		}
		return fmt.Sprintf(phrasings[variant%len(phrasings)], op.Start, op.End)
	case OpSortAsc:
		phrasings := []string{
			"sort the bytes in ascending order",
			"arrange the bytes from smallest to largest value",
		}
		return phrasings[variant%len(phrasings)]
	case OpRotateLeft:
		phrasings := []string{
			"rotate the buffer left by %d positions",
			"cyclically shift left %d places",
		}
		return fmt.Sprintf(phrasings[variant%len(phrasings)], op.Rotate)
	case OpSHA256:
		return "take the SHA-256 digest of the buffer"
	case OpBitwiseNot:
		return "invert every bit in the buffer"
	case OpRepeat:
		phrasings := []string{
			"repeat the buffer %d times end to end",
			"concatenate %d copies of the buffer",
		}
		return fmt.Sprintf(phrasings[variant%len(phrasings)], op.Repeat)
	case OpHMACSHA256:
		return "compute HMAC-SHA256 over the buffer using the key " + hex.EncodeToString(op.HMACKey)
	case OpBase64Enc:
		return "base64-encode the buffer, then treat the resulting ASCII text as the next buffer"
	default:
		return "no-op"
	}
}

// finalAnswerHex computes SHA256hex(buf) as crypto-nl's terminal step.
func finalAnswerHex(buf []byte) string {
	return cryptoutil.SHA256Hex(buf)
}
