package rlwe

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/selfi123/Amortization-research-success/prof"
)

// KeyPair is a Ring-LWE key pair. Public = CommonRef·Secret + e for a small
// error e that is discarded after key generation.
type KeyPair struct {
	Secret    Poly
	Public    Poly
	CommonRef Poly
}

var (
	commonRefOnce sync.Once
	commonRef     Poly
	commonRefErr  error
)

// DeriveCommonReference reconstructs the common reference polynomial from
// seed. The derivation owns its PRNG so it never disturbs other sampling.
func DeriveCommonReference(seed []byte) (Poly, error) {
	prng, err := NewKeyedPRNG(seed)
	if err != nil {
		return Poly{}, err
	}
	return SamplePoly(prng, UniformBounds)
}

// CommonReference returns the polynomial a derived from the fixed seed.
// The result is computed once and returned by value.
func CommonReference() (Poly, error) {
	commonRefOnce.Do(func() {
		commonRef, commonRefErr = DeriveCommonReference(commonRefSeed)
		dbg(os.Stderr, "[keygen] common reference derived err=%v\n", commonRefErr)
	})
	return commonRef, commonRefErr
}

// GenerateDecoyKey returns the public key used to fill ring slot index when
// no real member occupies it. Coefficients are uniform over [0, Q), which is
// indistinguishable from a real public key under Ring-LWE.
func GenerateDecoyKey(index int) (Poly, error) {
	if index < 0 {
		return Poly{}, fmt.Errorf("rlwe: negative decoy index %d", index)
	}
	seed := make([]byte, len(decoyLabel)+8)
	copy(seed, decoyLabel)
	binary.BigEndian.PutUint64(seed[len(decoyLabel):], uint64(index))
	prng, err := NewKeyedPRNG(seed)
	if err != nil {
		return Poly{}, err
	}
	return SamplePoly(prng, UniformBounds)
}

// KeyGen samples a fresh key pair from prng using the default multiplier.
func KeyGen(prng *PRNG) (*KeyPair, error) {
	kp, _, err := keyGen(prng, SchoolbookMultiplier{})
	return kp, err
}

// KeyGenWith is KeyGen with an explicit multiplier.
func KeyGenWith(prng *PRNG, mul Multiplier) (*KeyPair, error) {
	kp, _, err := keyGen(prng, mul)
	return kp, err
}

func keyGen(prng *PRNG, mul Multiplier) (*KeyPair, Poly, error) {
	defer prof.Track(time.Now(), "rlwe.KeyGen")
	a, err := CommonReference()
	if err != nil {
		return nil, Poly{}, err
	}
	s, err := SamplePoly(prng, NoiseBounds)
	if err != nil {
		return nil, Poly{}, fmt.Errorf("rlwe: sample secret: %w", err)
	}
	e, err := SamplePoly(prng, NoiseBounds)
	if err != nil {
		return nil, Poly{}, fmt.Errorf("rlwe: sample error: %w", err)
	}
	as := mul.Mul(&a, &s)
	return &KeyPair{Secret: s, Public: as.Add(&e), CommonRef: a}, e, nil
}

// GenerateKeyPair draws a key pair from a freshly seeded PRNG.
func GenerateKeyPair() (*KeyPair, error) {
	prng, err := NewPRNG()
	if err != nil {
		return nil, err
	}
	return KeyGen(prng)
}

// Check reports whether Public == CommonRef·Secret + e.
func (kp *KeyPair) Check(e *Poly) bool {
	as := NaiveConvolution(&kp.CommonRef, &kp.Secret)
	want := as.Add(e)
	return want.Equal(&kp.Public)
}

// Zero clears the secret.
func (kp *KeyPair) Zero() {
	kp.Secret = Poly{}
}
