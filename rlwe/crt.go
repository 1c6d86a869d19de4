package rlwe

import (
	"fmt"
	"math/big"
)

// crtBasis lifts residues modulo a fixed set of coprime moduli back to a
// centered integer. The mixed-radix inverses are computed once.
type crtBasis struct {
	moduli []*big.Int
	// inv[i] = (moduli[0]···moduli[i-1])^-1 mod moduli[i]
	inv  []*big.Int
	prod *big.Int
	half *big.Int
}

func newCRTBasis(moduli []uint64) (*crtBasis, error) {
	b := &crtBasis{prod: big.NewInt(1)}
	for i, q := range moduli {
		bq := new(big.Int).SetUint64(q)
		inv := new(big.Int).ModInverse(b.prod, bq)
		if inv == nil {
			return nil, fmt.Errorf("rlwe: crt modulus %d is not coprime to the others", i)
		}
		b.moduli = append(b.moduli, bq)
		b.inv = append(b.inv, inv)
		b.prod.Mul(b.prod, bq)
	}
	b.half = new(big.Int).Rsh(b.prod, 1)
	return b, nil
}

// lift returns the integer in (-prod/2, prod/2] congruent to residues[i]
// modulo every moduli[i]. x and t are scratch values reused across calls.
func (b *crtBasis) lift(residues []uint64, x, t *big.Int) *big.Int {
	x.SetUint64(residues[0])
	m := new(big.Int).Set(b.moduli[0])
	for i := 1; i < len(b.moduli); i++ {
		// digit = (r_i - x) · inv_i mod q_i, then x += m·digit
		t.SetUint64(residues[i])
		t.Sub(t, x)
		t.Mul(t, b.inv[i])
		t.Mod(t, b.moduli[i])
		t.Mul(t, m)
		x.Add(x, t)
		m.Mul(m, b.moduli[i])
	}
	if x.Cmp(b.half) > 0 {
		x.Sub(x, b.prod)
	}
	return x
}
