package keys

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/selfi123/Amortization-research-success/rlwe"
	"github.com/selfi123/Amortization-research-success/rlwe/ringsig"
)

func TestKeyPairPersistence(t *testing.T) {
	dir := t.TempDir()
	prng, _ := rlwe.NewKeyedPRNG([]byte("keys-persist"))
	kp, err := rlwe.KeyGen(prng)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	if err := SavePrivate(dir, FromKeyPair(kp)); err != nil {
		t.Fatalf("SavePrivate: %v", err)
	}
	if err := SavePublic(dir, FromPublic(&kp.Public)); err != nil {
		t.Fatalf("SavePublic: %v", err)
	}
	sk, err := LoadPrivate(dir)
	if err != nil {
		t.Fatalf("LoadPrivate: %v", err)
	}
	got, err := sk.KeyPair()
	if err != nil {
		t.Fatalf("KeyPair: %v", err)
	}
	if *got != *kp {
		t.Fatalf("reloaded key pair differs")
	}
	pk, err := LoadPublic(dir)
	if err != nil {
		t.Fatalf("LoadPublic: %v", err)
	}
	pub, err := pk.Poly()
	if err != nil {
		t.Fatalf("Poly: %v", err)
	}
	if !pub.Equal(&kp.Public) {
		t.Fatalf("reloaded public key differs")
	}
}

func TestShapeMismatch(t *testing.T) {
	pk := &PublicKey{N: 64, Q: rlwe.Q, Coeffs: make([]int64, 64)}
	if _, err := pk.Poly(); err == nil {
		t.Fatalf("expected parameter mismatch error")
	}
	if _, err := LoadPrivate(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSignatureBundle(t *testing.T) {
	dir := t.TempDir()
	prng, _ := rlwe.NewKeyedPRNG([]byte("keys-sig"))
	kp, err := rlwe.KeyGen(prng)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	d1, _ := rlwe.GenerateDecoyKey(1)
	d2, _ := rlwe.GenerateDecoyKey(2)
	ring := []rlwe.Poly{kp.Public, d1, d2}
	kw, _ := ringsig.NewKeyword([]byte("bundle"))
	sig, err := ringsig.NewSigner(prng).Sign(kw, kp, ring, 0)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := SaveSignature(dir, FromSignature(sig, ring)); err != nil {
		t.Fatalf("SaveSignature: %v", err)
	}
	b, err := LoadSignature(dir)
	if err != nil {
		t.Fatalf("LoadSignature: %v", err)
	}
	got, gotRing, err := b.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *got != *sig {
		t.Fatalf("decoded signature differs")
	}
	if !ringsig.Verify(got, gotRing) {
		t.Fatalf("reloaded signature does not verify")
	}
}

func TestSaveNilRejected(t *testing.T) {
	dir := t.TempDir()
	if err := SavePrivate(dir, nil); !errors.Is(err, ErrNilValue) {
		t.Fatalf("SavePrivate(nil): expected ErrNilValue, got %v", err)
	}
	var pk *PublicKey
	if err := SavePublic(dir, pk); !errors.Is(err, ErrNilValue) {
		t.Fatalf("SavePublic(nil): expected ErrNilValue, got %v", err)
	}
	if err := SaveSignature(dir, nil); !errors.Is(err, ErrNilValue) {
		t.Fatalf("SaveSignature(nil): expected ErrNilValue, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, publicFile)); !os.IsNotExist(err) {
		t.Fatalf("nil save created %s: %v", publicFile, err)
	}
}
