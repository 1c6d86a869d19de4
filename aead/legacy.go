package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"

	"github.com/selfi123/Amortization-research-success/kdf"
)

// Legacy is AES-128-CTR under SHA256(key‖0x01)[:16] with an
// HMAC-SHA256(SHA256(key‖0x02), aad‖ct) tag truncated to 16 bytes.
// The counter block is nonce‖00000001 incremented as a 128-bit integer.
type Legacy struct{}

func (Legacy) Profile() Profile { return ProfileLegacy }

func legacyKeys(key []byte) (enc [16]byte, mac [32]byte) {
	e := kdf.Sum256(key, []byte{0x01})
	copy(enc[:], e[:16])
	kdf.Zero(e[:])
	mac = kdf.Sum256(key, []byte{0x02})
	return enc, mac
}

func legacyStream(enc []byte, nonce []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(enc)
	if err != nil {
		return nil, err
	}
	var iv [aes.BlockSize]byte
	copy(iv[:], nonce)
	iv[aes.BlockSize-1] = 1
	return cipher.NewCTR(block, iv[:]), nil
}

func (Legacy) Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	if err := checkSeal(key, nonce, plaintext, aad); err != nil {
		return nil, err
	}
	enc, mac := legacyKeys(key)
	defer kdf.Zero(enc[:])
	defer kdf.Zero(mac[:])

	stream, err := legacyStream(enc[:], nonce)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext), len(plaintext)+TagSize)
	stream.XORKeyStream(out, plaintext)
	tag := kdf.HMAC(mac[:], aad, out)
	return append(out, tag[:TagSize]...), nil
}

func (Legacy) Open(key, nonce, sealed, aad []byte) ([]byte, error) {
	if err := checkOpen(key, nonce, sealed, aad); err != nil {
		return nil, err
	}
	enc, mac := legacyKeys(key)
	defer kdf.Zero(enc[:])
	defer kdf.Zero(mac[:])

	n := len(sealed) - TagSize
	ct, tag := sealed[:n], sealed[n:]
	want := kdf.HMAC(mac[:], aad, ct)
	if subtle.ConstantTimeCompare(want[:TagSize], tag) != 1 {
		return nil, ErrAuth
	}
	stream, err := legacyStream(enc[:], nonce)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	stream.XORKeyStream(out, ct)
	return out, nil
}
