package aead

import (
	"crypto/aes"
	"crypto/cipher"
)

// GCM is AES-256-GCM with a 12-byte nonce and a 16-byte tag.
type GCM struct{}

func (GCM) Profile() Profile { return ProfileGCM }

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (GCM) Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	if err := checkSeal(key, nonce, plaintext, aad); err != nil {
		return nil, err
	}
	g, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return g.Seal(make([]byte, 0, len(plaintext)+TagSize), nonce, plaintext, aad), nil
}

func (GCM) Open(key, nonce, sealed, aad []byte) ([]byte, error) {
	if err := checkOpen(key, nonce, sealed, aad); err != nil {
		return nil, err
	}
	g, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	out, err := g.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuth
	}
	return out, nil
}
