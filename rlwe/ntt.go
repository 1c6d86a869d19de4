package rlwe

import (
	"fmt"
	"math/big"
	"os"

	"github.com/tuneinsight/lattigo/v4/ring"
)

// rnsModuli are NTT-friendly primes (= 1 mod 2N) whose product exceeds
// 2*N*Q^2, so the integer negacyclic product is exact in RNS form.
var rnsModuli = []uint64{0xffffffffffc0001, 0xfffffffff840001}

// selfCheckRounds is the number of random products compared against the
// schoolbook result before an RNSMultiplier is handed out.
const selfCheckRounds = 8

// RNSMultiplier computes ring products through lattigo NTTs over rnsModuli,
// recombines the exact integer product by CRT and reduces it modulo Q.
// It is only ever returned after agreeing with NaiveConvolution.
type RNSMultiplier struct {
	r   *ring.Ring
	crt *crtBasis
}

// NewRNSMultiplier builds the transform-based multiplier and verifies it
// numerically against the schoolbook reference using a keyed PRNG.
func NewRNSMultiplier() (*RNSMultiplier, error) {
	dbg(os.Stderr, "[NTT] NewRNSMultiplier N=%d limbs=%d\n", N, len(rnsModuli))
	r, err := ring.NewRing(N, rnsModuli)
	if err != nil {
		return nil, fmt.Errorf("rlwe: rns ring: %w", err)
	}
	crt, err := newCRTBasis(rnsModuli)
	if err != nil {
		return nil, err
	}
	m := &RNSMultiplier{r: r, crt: crt}
	prng, err := NewKeyedPRNG([]byte("rlwe:rns-self-check"))
	if err != nil {
		return nil, err
	}
	if err := m.selfCheck(prng, selfCheckRounds); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RNSMultiplier) selfCheck(prng *PRNG, rounds int) error {
	for k := 0; k < rounds; k++ {
		a, err := SamplePoly(prng, UniformBounds)
		if err != nil {
			return err
		}
		b, err := SamplePoly(prng, UniformBounds)
		if err != nil {
			return err
		}
		want := NaiveConvolution(&a, &b)
		got := m.Mul(&a, &b)
		for i := range want {
			if want[i] != got[i] {
				return fmt.Errorf("rlwe: rns multiplier disagrees with schoolbook at round %d coefficient %d", k, i)
			}
		}
	}
	dbg(os.Stderr, "[NTT] self-check passed (%d rounds)\n", rounds)
	return nil
}

func (m *RNSMultiplier) lift(a *Poly) *ring.Poly {
	p := m.r.NewPoly()
	for level := range p.Coeffs {
		for j, c := range a {
			p.Coeffs[level][j] = uint64(c)
		}
	}
	return p
}

// Mul implements Multiplier.
func (m *RNSMultiplier) Mul(a, b *Poly) Poly {
	pa := m.lift(a)
	pb := m.lift(b)
	m.r.MForm(pa, pa)
	m.r.MForm(pb, pb)
	m.r.NTT(pa, pa)
	m.r.NTT(pb, pb)
	res := m.r.NewPoly()
	m.r.MulCoeffsMontgomery(pa, pb, res)
	m.r.InvNTT(res, res)
	m.r.InvMForm(res, res)

	var out Poly
	residues := make([]uint64, len(res.Coeffs))
	bq := big.NewInt(Q)
	x, t := new(big.Int), new(big.Int)
	for j := 0; j < N; j++ {
		for i := range residues {
			residues[i] = res.Coeffs[i][j]
		}
		m.crt.lift(residues, x, t)
		x.Mod(x, bq)
		out[j] = int32(x.Int64())
	}
	return out
}
