package ringsig

import (
	"crypto/sha256"

	"github.com/selfi123/Amortization-research-success/rlwe"
)

// HighBits drops the low HighBitsShift bits of every coefficient.
func HighBits(p *rlwe.Poly) rlwe.Poly {
	var r rlwe.Poly
	for i, c := range p {
		r[i] = c >> HighBitsShift
	}
	return r
}

// HighBitsClose reports whether every pair of coefficients is within
// HighBitsTolerance when measured as the shortest signed distance modulo
// HighBitsModulus.
func HighBitsClose(a, b *rlwe.Poly) bool {
	const maxHigh = HighBitsModulus - 1
	for i := range a {
		d := int64(a[i]) - int64(b[i])
		if d > maxHigh/2 {
			d -= HighBitsModulus
		} else if d < -maxHigh/2 {
			d += HighBitsModulus
		}
		if d > HighBitsTolerance || d < -HighBitsTolerance {
			return false
		}
	}
	return true
}

// ChallengeHash is SHA-256 over the serialized compressed commitment and the
// keyword.
func ChallengeHash(commitment *rlwe.Poly, kw *Keyword) [ChallengeSize]byte {
	h := sha256.New()
	h.Write(rlwe.MarshalPoly(commitment))
	h.Write(kw[:])
	var out [ChallengeSize]byte
	h.Sum(out[:0])
	return out
}

// ExpandChallenge unpacks the digest into a binary polynomial: coefficient i
// is bit (i mod 8) of byte (i mod 32).
func ExpandChallenge(hash *[ChallengeSize]byte) rlwe.Poly {
	var c rlwe.Poly
	for i := range c {
		c[i] = int32(hash[i%ChallengeSize]>>(uint(i)%8)) & 1
	}
	return c
}
