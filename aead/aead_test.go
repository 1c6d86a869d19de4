package aead

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
)

var (
	katKey   = seq(0x00, KeySize)
	katNonce = seq(0xa0, NonceSize)
	katAAD   = []byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 1}
	katPT    = []byte("hello legacy profile")
)

func seq(start byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func profiles(t *testing.T) []Cipher {
	t.Helper()
	var out []Cipher
	for _, p := range []Profile{ProfileLegacy, ProfileGCM} {
		c, err := New(p)
		if err != nil {
			t.Fatalf("New(%v): %v", p, err)
		}
		out = append(out, c)
	}
	return out
}

func TestKnownAnswers(t *testing.T) {
	cases := []struct {
		c    Cipher
		want string
	}{
		{Legacy{}, "5609ad0a4ea6f6756674b090a1c0b02567f07c9b966c5f1dd5720fb1549bb034cf114ecd"},
		{GCM{}, "8e7d10412aeb6eda0504e4aa270ab2b116c53575e47b88f64ff54c644ba6570fda1fca85"},
	}
	for _, c := range cases {
		got, err := c.c.Seal(katKey, katNonce, katPT, katAAD)
		if err != nil {
			t.Fatalf("%v Seal: %v", c.c.Profile(), err)
		}
		if !bytes.Equal(got, unhex(t, c.want)) {
			t.Fatalf("%v Seal = %x", c.c.Profile(), got)
		}
	}
}

// AES-256 GCM vectors with all-zero key and IV.
func TestGCMZeroVectors(t *testing.T) {
	key, nonce := make([]byte, KeySize), make([]byte, NonceSize)
	got, err := GCM{}.Seal(key, nonce, nil, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !bytes.Equal(got, unhex(t, "530f8afbc74536b9a963b4f1c4cb738b")) {
		t.Fatalf("empty tag = %x", got)
	}
	got, err = GCM{}.Seal(key, nonce, make([]byte, 16), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	want := unhex(t, "cea7403d4d606b6e074ec5d3baf39d18d0d1c8a799996bf0265b98b5d48ab919")
	if !bytes.Equal(got, want) {
		t.Fatalf("one-block seal = %x", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range profiles(t) {
		for _, n := range []int{0, 1, 15, 16, 17, 64, MaxPlaintext} {
			for _, a := range []int{0, 12, MaxAAD} {
				t.Run(fmt.Sprintf("%v/pt%d/aad%d", c.Profile(), n, a), func(t *testing.T) {
					pt := seq(byte(n), n)
					aad := seq(0x40, a)
					sealed, err := c.Seal(katKey, katNonce, pt, aad)
					if err != nil {
						t.Fatalf("Seal: %v", err)
					}
					if len(sealed) != n+TagSize {
						t.Fatalf("sealed length %d want %d", len(sealed), n+TagSize)
					}
					got, err := c.Open(katKey, katNonce, sealed, aad)
					if err != nil {
						t.Fatalf("Open: %v", err)
					}
					if !bytes.Equal(got, pt) {
						t.Fatalf("plaintext mismatch")
					}
				})
			}
		}
	}
}

func TestTamperRejected(t *testing.T) {
	for _, c := range profiles(t) {
		sealed, err := c.Seal(katKey, katNonce, katPT, katAAD)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		for bit := 0; bit < len(sealed)*8; bit += 7 {
			mod := append([]byte(nil), sealed...)
			mod[bit/8] ^= 1 << (bit % 8)
			pt, err := c.Open(katKey, katNonce, mod, katAAD)
			if !errors.Is(err, ErrAuth) || pt != nil {
				t.Fatalf("%v: flipped bit %d accepted (err=%v)", c.Profile(), bit, err)
			}
		}
		for i := range katAAD {
			aad := append([]byte(nil), katAAD...)
			aad[i] ^= 0x10
			if pt, err := c.Open(katKey, katNonce, sealed, aad); !errors.Is(err, ErrAuth) || pt != nil {
				t.Fatalf("%v: modified AAD byte %d accepted", c.Profile(), i)
			}
		}
		nonce := append([]byte(nil), katNonce...)
		nonce[11] ^= 1
		if _, err := c.Open(katKey, nonce, sealed, katAAD); !errors.Is(err, ErrAuth) {
			t.Fatalf("%v: wrong nonce accepted", c.Profile())
		}
	}
}

func TestProfilesDiffer(t *testing.T) {
	a, _ := Legacy{}.Seal(katKey, katNonce, katPT, katAAD)
	if _, err := (GCM{}).Open(katKey, katNonce, a, katAAD); !errors.Is(err, ErrAuth) {
		t.Fatalf("gcm opened a legacy message")
	}
}

func TestLimits(t *testing.T) {
	for _, c := range profiles(t) {
		checks := []struct {
			name string
			err  error
			call func() error
		}{
			{"key", ErrKeySize, func() error { _, err := c.Seal(katKey[:16], katNonce, nil, nil); return err }},
			{"nonce", ErrNonceSize, func() error { _, err := c.Seal(katKey, katNonce[:8], nil, nil); return err }},
			{"aad", ErrAADTooLong, func() error { _, err := c.Seal(katKey, katNonce, nil, make([]byte, MaxAAD+1)); return err }},
			{"plaintext", ErrPlaintextTooLong, func() error {
				_, err := c.Seal(katKey, katNonce, make([]byte, MaxPlaintext+1), nil)
				return err
			}},
			{"short", ErrCiphertextTooShort, func() error { _, err := c.Open(katKey, katNonce, make([]byte, TagSize-1), nil); return err }},
		}
		for _, ch := range checks {
			if err := ch.call(); !errors.Is(err, ch.err) {
				t.Fatalf("%v %s: got %v want %v", c.Profile(), ch.name, err, ch.err)
			}
		}
	}
}

func TestParseProfile(t *testing.T) {
	for in, want := range map[string]Profile{"legacy": ProfileLegacy, "GCM": ProfileGCM, " aes-gcm ": ProfileGCM} {
		got, err := ParseProfile(in)
		if err != nil || got != want {
			t.Fatalf("ParseProfile(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseProfile("chacha"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
	var p Profile
	if err := p.UnmarshalText([]byte("gcm")); err != nil || p != ProfileGCM {
		t.Fatalf("UnmarshalText: %v %v", p, err)
	}
	if b, _ := ProfileLegacy.MarshalText(); string(b) != "legacy" {
		t.Fatalf("MarshalText=%q", b)
	}
	if _, err := New(Profile(9)); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}
