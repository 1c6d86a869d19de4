package ringsig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/selfi123/Amortization-research-success/prof"
	"github.com/selfi123/Amortization-research-success/rlwe"
)

var (
	// ErrRejectionExhausted means no attempt passed both the bound and the
	// consistency check within the attempt budget.
	ErrRejectionExhausted = errors.New("ringsig: rejection sampling exhausted")
	// ErrSignatureInvalid is returned by VerifyErr for any rejected signature.
	ErrSignatureInvalid = errors.New("ringsig: signature invalid")
)

// Signature is a ring signature over a keyword. Only the signer's slot holds
// a real response; every other slot is the zero polynomial.
type Signature struct {
	Responses  [rlwe.RingSize]rlwe.Poly
	Commitment rlwe.Poly
	Challenge  [ChallengeSize]byte
	Keyword    Keyword
}

// Signer carries the sampling state for signing. The zero value is not
// usable; see NewSigner.
type Signer struct {
	PRNG       *rlwe.PRNG
	Multiplier rlwe.Multiplier
	Attempts   int
	// Bound overrides ResponseBound when positive.
	Bound int64
}

// NewSigner returns a Signer drawing masks from prng with the default
// multiplier and attempt budget.
func NewSigner(prng *rlwe.PRNG) *Signer {
	return &Signer{PRNG: prng, Multiplier: rlwe.SchoolbookMultiplier{}, Attempts: MaxSignAttempts}
}

// Sign signs kw with kp occupying ring[signerIndex], using fresh randomness.
func Sign(kw Keyword, kp *rlwe.KeyPair, ring []rlwe.Poly, signerIndex int) (*Signature, error) {
	prng, err := rlwe.NewPRNG()
	if err != nil {
		return nil, err
	}
	return NewSigner(prng).Sign(kw, kp, ring, signerIndex)
}

// SignWith is Sign with an explicit Signer.
func SignWith(s *Signer, kw Keyword, kp *rlwe.KeyPair, ring []rlwe.Poly, signerIndex int) (*Signature, error) {
	return s.Sign(kw, kp, ring, signerIndex)
}

// Sign runs the rejection-sampling loop.
func (s *Signer) Sign(kw Keyword, kp *rlwe.KeyPair, ring []rlwe.Poly, signerIndex int) (*Signature, error) {
	defer prof.Track(time.Now(), "ringsig.Sign")
	if len(ring) != rlwe.RingSize {
		return nil, fmt.Errorf("ringsig: ring has %d members, want %d", len(ring), rlwe.RingSize)
	}
	if signerIndex < 0 || signerIndex >= rlwe.RingSize {
		return nil, fmt.Errorf("ringsig: signer index %d out of range", signerIndex)
	}
	if !ring[signerIndex].Equal(&kp.Public) {
		return nil, fmt.Errorf("ringsig: ring slot %d does not hold the signer's public key", signerIndex)
	}
	bound := int64(ResponseBound)
	if s.Bound > 0 {
		bound = s.Bound
	}
	mul := s.Multiplier
	if mul == nil {
		mul = rlwe.SchoolbookMultiplier{}
	}
	a := kp.CommonRef
	maskBounds := rlwe.Bounds{Min: -MaskBound, Max: MaskBound}

	for attempt := 1; attempt <= s.Attempts; attempt++ {
		y, err := rlwe.SamplePoly(s.PRNG, maskBounds)
		if err != nil {
			return nil, err
		}
		w := mul.Mul(&a, &y)
		wApprox := HighBits(&w)
		hash := ChallengeHash(&wApprox, &kw)
		c := ExpandChallenge(&hash)

		sc := mul.Mul(&kp.Secret, &c)
		z := y.Add(&sc)
		if z.InfNorm() > bound {
			dbg("attempt %d: bound check failed (|z|=%d)\n", attempt, z.InfNorm())
			continue
		}
		wPrime := commitmentFor(mul, &a, &z, &kp.Public, &c)
		if !HighBitsClose(&wPrime, &wApprox) {
			dbg("attempt %d: consistency check failed\n", attempt)
			continue
		}

		sig := &Signature{Commitment: wApprox, Challenge: hash, Keyword: kw}
		sig.Responses[signerIndex] = z
		dbg("signed after %d attempts\n", attempt)
		return sig, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrRejectionExhausted, s.Attempts)
}

// commitmentFor recomputes HighBits(a*z - pk*c).
func commitmentFor(mul rlwe.Multiplier, a, z, pk, c *rlwe.Poly) rlwe.Poly {
	az := mul.Mul(a, z)
	pc := mul.Mul(pk, c)
	w := az.Sub(&pc)
	return HighBits(&w)
}

var debugOn = os.Getenv("RLWE_DEBUG") == "1"

func dbg(f string, a ...any) {
	if debugOn {
		fmt.Fprintf(os.Stderr, "[ringsig] "+f, a...)
	}
}
