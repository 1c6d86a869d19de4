package kdf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestSum256(t *testing.T) {
	got := Sum256([]byte("a"), []byte("bc"))
	want := unhex(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	if !bytes.Equal(got[:], want) {
		t.Fatalf("Sum256(abc)=%x", got)
	}
}

// RFC 4231 test case 2.
func TestHMAC(t *testing.T) {
	got := HMAC([]byte("Jefe"), []byte("what do ya want "), []byte("for nothing?"))
	want := unhex(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843")
	if !bytes.Equal(got[:], want) {
		t.Fatalf("HMAC=%x", got)
	}
}

// RFC 5869 test cases 1 and 3.
func TestHKDFVectors(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x0b}, 22)
	cases := []struct {
		name      string
		salt      []byte
		info      []byte
		n         int
		prk, okm  string
	}{
		{
			name: "basic",
			salt: unhex(t, "000102030405060708090a0b0c"),
			info: unhex(t, "f0f1f2f3f4f5f6f7f8f9"),
			n:    42,
			prk:  "077709362c2e32df0ddc3f0dc47bba6390b6c73bb50f9c3122ec844ad7c2b3e5",
			okm:  "3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865",
		},
		{
			name: "empty salt and info",
			n:    42,
			prk:  "19ef24a32c717b167f33a91d6f648bdf96596776afdb6377ac434c1c293ccb04",
			okm:  "8da4e775a563c18f715f802a063c5a31b8a11f5c5ee1879ec3454e5f3c738d2d9d201395faa4b61a96c8",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			prk := Extract(c.salt, ikm)
			if !bytes.Equal(prk[:], unhex(t, c.prk)) {
				t.Fatalf("PRK=%x", prk)
			}
			okm, err := HKDF(c.salt, ikm, c.info, c.n)
			if err != nil {
				t.Fatalf("HKDF: %v", err)
			}
			if !bytes.Equal(okm, unhex(t, c.okm)) {
				t.Fatalf("OKM=%x", okm)
			}
		})
	}
}

func TestExpandLength(t *testing.T) {
	prk := Extract(nil, []byte("ikm"))
	if _, err := Expand(prk[:], nil, 0); !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength for 0, got %v", err)
	}
	if _, err := Expand(prk[:], nil, MaxExpand+1); !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength for oversize, got %v", err)
	}
	long, err := Expand(prk[:], []byte("info"), 100)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	short, _ := Expand(prk[:], []byte("info"), 33)
	if !bytes.Equal(long[:33], short) {
		t.Fatalf("shorter output is not a prefix of longer output")
	}
}

func TestDerive32Deterministic(t *testing.T) {
	a := Derive32([]byte("ikm"), []byte("info"))
	b := Derive32([]byte("ikm"), []byte("info"))
	c := Derive32([]byte("ikm"), []byte("other"))
	if a != b {
		t.Fatalf("Derive32 is not deterministic")
	}
	if a == c {
		t.Fatalf("distinct info produced equal keys")
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Fatalf("Zero left %v", b)
	}
}
