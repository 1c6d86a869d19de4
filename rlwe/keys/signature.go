package keys

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
)

// Signature is the on-disk signature bundle: the signature itself plus the
// ring it was produced against.
type Signature struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Params    struct {
		N        int   `json:"N"`
		Q        int64 `json:"Q"`
		RingSize int   `json:"ring_size"`
	} `json:"params"`
	Ring      [][]int64 `json:"ring"`
	Responses [][]int64 `json:"responses"`
	// Commitment holds high-bit values, which are already small and stored as-is.
	Commitment []int64 `json:"commitment"`
	Challenge  string  `json:"challenge"`
	Keyword    string  `json:"keyword"`
}

// FromSignature bundles sig with ring and stamps the current time.
func FromSignature(sig *ringsig.Signature, ring []rlwe.Poly) *Signature {
	s := &Signature{Version: "rlwe-ringsig-v1", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	s.Params.N, s.Params.Q, s.Params.RingSize = rlwe.N, rlwe.Q, rlwe.RingSize
	for i := range ring {
		s.Ring = append(s.Ring, ring[i].Centered())
	}
	for i := range sig.Responses {
		s.Responses = append(s.Responses, sig.Responses[i].Centered())
	}
	s.Commitment = make([]int64, rlwe.N)
	for i, c := range sig.Commitment {
		s.Commitment[i] = int64(c)
	}
	s.Challenge = hex.EncodeToString(sig.Challenge[:])
	s.Keyword = hex.EncodeToString(sig.Keyword[:])
	return s
}

// Decode returns the signature and ring held by the bundle.
func (s *Signature) Decode() (*ringsig.Signature, []rlwe.Poly, error) {
	if s.Params.N != rlwe.N || s.Params.Q != rlwe.Q || s.Params.RingSize != rlwe.RingSize {
		return nil, nil, fmt.Errorf("keys: signature parameters do not match this build")
	}
	if len(s.Ring) != rlwe.RingSize || len(s.Responses) != rlwe.RingSize || len(s.Commitment) != rlwe.N {
		return nil, nil, fmt.Errorf("keys: malformed signature bundle")
	}
	var sig ringsig.Signature
	ring := make([]rlwe.Poly, rlwe.RingSize)
	for i := 0; i < rlwe.RingSize; i++ {
		if len(s.Ring[i]) != rlwe.N || len(s.Responses[i]) != rlwe.N {
			return nil, nil, fmt.Errorf("keys: ring member %d is malformed", i)
		}
		ring[i] = rlwe.FromCentered(s.Ring[i])
		sig.Responses[i] = rlwe.FromCentered(s.Responses[i])
	}
	sig.Commitment = rlwe.FromCentered(s.Commitment)
	if err := decodeHex(s.Challenge, sig.Challenge[:]); err != nil {
		return nil, nil, fmt.Errorf("keys: challenge: %w", err)
	}
	if err := decodeHex(s.Keyword, sig.Keyword[:]); err != nil {
		return nil, nil, fmt.Errorf("keys: keyword: %w", err)
	}
	return &sig, ring, nil
}

func decodeHex(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%d bytes, want %d", len(b), len(dst))
	}
	copy(dst, b)
	return nil
}

// SaveSignature writes s to dir/signature.json.
func SaveSignature(dir string, s *Signature) error {
	return writeJSON(dir, signatureFile, 0o644, s)
}

// LoadSignature reads dir/signature.json.
func LoadSignature(dir string) (*Signature, error) {
	var s Signature
	if err := readJSON(dir, signatureFile, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
