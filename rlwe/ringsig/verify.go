package ringsig

import (
	"fmt"
	"time"

	"github.com/selfi123/Amortization-research-success/prof"
	"github.com/selfi123/Amortization-research-success/rlwe"
)

// Verify reports whether sig is a valid ring signature for ring.
func Verify(sig *Signature, ring []rlwe.Poly) bool {
	return VerifyErr(sig, ring) == nil
}

// VerifyErr is Verify returning the reason for rejection wrapped in
// ErrSignatureInvalid. All-zero response slots are skipped, and the first
// consistent slot accepts.
func VerifyErr(sig *Signature, ring []rlwe.Poly) error {
	return VerifyWith(rlwe.SchoolbookMultiplier{}, sig, ring)
}

// VerifyWith is VerifyErr with an explicit multiplier.
func VerifyWith(mul rlwe.Multiplier, sig *Signature, ring []rlwe.Poly) error {
	defer prof.Track(time.Now(), "ringsig.Verify")
	if sig == nil {
		return fmt.Errorf("%w: nil signature", ErrSignatureInvalid)
	}
	if len(ring) != rlwe.RingSize {
		return fmt.Errorf("%w: ring has %d members, want %d", ErrSignatureInvalid, len(ring), rlwe.RingSize)
	}
	a, err := rlwe.CommonReference()
	if err != nil {
		return err
	}
	hash := ChallengeHash(&sig.Commitment, &sig.Keyword)
	if hash != sig.Challenge {
		return fmt.Errorf("%w: commitment hash mismatch", ErrSignatureInvalid)
	}
	c := ExpandChallenge(&hash)
	for i := range sig.Responses {
		z := &sig.Responses[i]
		if z.IsZero() {
			continue
		}
		if z.InfNorm() > ResponseBound {
			dbg("verify: slot %d exceeds response bound\n", i)
			continue
		}
		wPrime := commitmentFor(mul, &a, z, &ring[i], &c)
		if HighBitsClose(&wPrime, &sig.Commitment) {
			dbg("verify: slot %d consistent\n", i)
			return nil
		}
	}
	return fmt.Errorf("%w: no ring member is consistent", ErrSignatureInvalid)
}
