// Package session derives per-session and per-message keys and keeps the
// sender and receiver state that amortizes one handshake over many messages.
package session

import (
	"encoding/binary"

	"github.com/selfi123/Amortization-research-success/kdf"
)

const (
	IDSize        = 8
	MasterKeySize = 32
	NonceSize     = IDSize + 4
	// MaxMessageSize is the largest plaintext carried by one data message.
	MaxMessageSize = 64
	// DefaultRenewThreshold is the number of messages sent before a sender
	// tears its session down and re-authenticates.
	DefaultRenewThreshold = 20
)

var (
	masterInfo  = []byte("master-key")
	messageInfo = []byte("session-key")
)

// ID names a session on the wire.
type ID [IDSize]byte

// MasterKey is the per-session root secret.
type MasterKey [MasterKeySize]byte

// DeriveMasterKey is HKDF(salt=∅, ikm=errorVector‖peerNonce, "master-key").
func DeriveMasterKey(errorVector, peerNonce []byte) MasterKey {
	ikm := make([]byte, 0, len(errorVector)+len(peerNonce))
	ikm = append(append(ikm, errorVector...), peerNonce...)
	defer kdf.Zero(ikm)
	return kdf.Derive32(ikm, masterInfo)
}

// DeriveMessageKey is HKDF(salt=∅, ikm=master, "session-key"‖sid‖counterBE).
func DeriveMessageKey(master *MasterKey, sid ID, counter uint32) [32]byte {
	info := make([]byte, 0, len(messageInfo)+IDSize+4)
	info = append(info, messageInfo...)
	info = append(info, sid[:]...)
	info = binary.BigEndian.AppendUint32(info, counter)
	return kdf.Derive32(master[:], info)
}

// Nonce returns sid‖counterBE. The same 12 bytes are used as the AEAD nonce
// and as the additional data.
func Nonce(sid ID, counter uint32) [NonceSize]byte {
	var n [NonceSize]byte
	copy(n[:], sid[:])
	binary.BigEndian.PutUint32(n[IDSize:], counter)
	return n
}

// Zero wipes the key.
func (k *MasterKey) Zero() { kdf.Zero(k[:]) }
