package rlwe

import (
	"math/big"
	"testing"
)

func TestCommonReferenceDeterministic(t *testing.T) {
	a1, err := CommonReference()
	if err != nil {
		t.Fatalf("CommonReference: %v", err)
	}
	a2, err := DeriveCommonReference(commonRefSeed)
	if err != nil {
		t.Fatalf("DeriveCommonReference: %v", err)
	}
	if !a1.Equal(&a2) {
		t.Fatalf("cached and recomputed reference differ")
	}
	other, err := DeriveCommonReference([]byte("another seed"))
	if err != nil {
		t.Fatalf("DeriveCommonReference: %v", err)
	}
	if other.Equal(&a1) {
		t.Fatalf("distinct seeds produced the same reference")
	}
}

func TestKeyGenRelation(t *testing.T) {
	prng := mustKeyed(t, "keygen-relation")
	for k := 0; k < 5; k++ {
		kp, e, err := keyGen(prng, SchoolbookMultiplier{})
		if err != nil {
			t.Fatalf("keyGen: %v", err)
		}
		if !kp.Check(&e) {
			t.Fatalf("public != a*s + e")
		}
		if kp.Secret.InfNorm() > NoiseBound || e.InfNorm() > NoiseBound {
			t.Fatalf("secret or error outside noise range")
		}
	}
}

func TestKeyGenWithRNSMatchesSchoolbook(t *testing.T) {
	m, err := NewRNSMultiplier()
	if err != nil {
		t.Fatalf("NewRNSMultiplier: %v", err)
	}
	kp1, err := KeyGenWith(mustKeyed(t, "keygen-rns"), m)
	if err != nil {
		t.Fatalf("KeyGenWith: %v", err)
	}
	kp2, err := KeyGen(mustKeyed(t, "keygen-rns"))
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	if !kp1.Public.Equal(&kp2.Public) || !kp1.Secret.Equal(&kp2.Secret) {
		t.Fatalf("multiplier choice changed the key pair")
	}
}

func TestGenerateDecoyKey(t *testing.T) {
	d1, err := GenerateDecoyKey(1)
	if err != nil {
		t.Fatalf("GenerateDecoyKey: %v", err)
	}
	again, _ := GenerateDecoyKey(1)
	if !d1.Equal(&again) {
		t.Fatalf("decoy key is not deterministic")
	}
	d2, _ := GenerateDecoyKey(2)
	if d1.Equal(&d2) {
		t.Fatalf("decoy keys for distinct indices collide")
	}
	if _, err := GenerateDecoyKey(-1); err == nil {
		t.Fatalf("expected error for negative index")
	}
	// Uniform coefficients should have a large norm, unlike noise.
	if d1.InfNorm() < Q/4 {
		t.Fatalf("decoy key looks small: %d", d1.InfNorm())
	}
}

func TestCRTLift(t *testing.T) {
	basis, err := newCRTBasis([]uint64{12289, 40961, 65537})
	if err != nil {
		t.Fatalf("basis: %v", err)
	}
	x, tmp := new(big.Int), new(big.Int)
	for _, v := range []int64{0, 1, -1, 123456789, -987654321, 12289 * 40961} {
		want := big.NewInt(v)
		res := make([]uint64, len(basis.moduli))
		for i, q := range basis.moduli {
			res[i] = new(big.Int).Mod(want, q).Uint64()
		}
		if got := basis.lift(res, x, tmp); got.Cmp(want) != 0 {
			t.Fatalf("lift(%d) = %v", v, got)
		}
	}
	if _, err := newCRTBasis([]uint64{12289, 24578}); err == nil {
		t.Fatalf("expected error for non-coprime moduli")
	}
}
