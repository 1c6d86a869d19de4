package rlwe

const (
	// N is the polynomial degree; the ring is Z_Q[x]/(x^N+1).
	N = 128
	// Q is the prime modulus 2^29 - 3. It is not NTT-friendly for N=128.
	Q = 536870909

	// RingSize is the number of public keys in a ring signature.
	RingSize = 3

	// NoiseBound bounds secret and error coefficients to [-NoiseBound, NoiseBound).
	NoiseBound = 100

	// PolyBytes is the serialized size of a polynomial (4 bytes per coefficient).
	PolyBytes = 4 * N
)

// commonRefSeed reconstructs the shared polynomial a.
var commonRefSeed = []byte("rlwe:common-reference:0xDEADBEEF")

// decoyLabel domain-separates decoy ring member keys from a.
const decoyLabel = "rlwe:decoy-member:"
