package ringsig

import "github.com/selfi123/Amortization-research-success/rlwe"

const (
	// MaskBound bounds the masking polynomial: y is uniform in [-MaskBound, MaskBound).
	MaskBound = 100000
	// ResponseBound is the largest accepted centered |z_i|.
	ResponseBound = 120000
	// HighBitsShift is the number of low-order bits dropped by HighBits.
	HighBitsShift = 13
	// HighBitsTolerance is the largest wrapped distance between matching
	// high-bit coefficients.
	HighBitsTolerance = 4
	// HighBitsModulus is one past the largest high-bit value.
	HighBitsModulus = ((rlwe.Q - 1) >> HighBitsShift) + 1
	// MaxSignAttempts is the default rejection-sampling budget.
	MaxSignAttempts = 500
	// KeywordSize is the fixed keyword buffer length.
	KeywordSize = 32
	// ChallengeSize is the Fiat-Shamir digest length.
	ChallengeSize = 32
	// SignatureBytes is the wire size of a Signature.
	SignatureBytes = (rlwe.RingSize+1)*rlwe.PolyBytes + ChallengeSize + KeywordSize
)
