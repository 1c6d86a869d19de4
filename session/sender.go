package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	"github.com/selfi123/Amortization-research-success/kdf"
	"github.com/selfi123/Amortization-research-success/measure"
)

var (
	ErrInactive         = errors.New("session: session is not active")
	ErrMessageTooLong   = errors.New("session: message too long")
	ErrCounterExhausted = errors.New("session: counter exhausted")
)

// Sender is the device side of a session. Counter is the value the next
// message will carry; it starts at 1 and only increases.
type Sender struct {
	ID      ID
	Counter uint32
	Active  bool
	Expiry  time.Time

	master MasterKey
	cipher aead.Cipher
}

// NewSender activates a session. The caller's copy of master may be zeroed
// afterwards.
func NewSender(id ID, master MasterKey, c aead.Cipher, ttl time.Duration) *Sender {
	s := &Sender{ID: id, Counter: 1, Active: true, master: master, cipher: c}
	if ttl > 0 {
		s.Expiry = time.Now().Add(ttl)
	}
	return s
}

// Encrypt seals plaintext under the key for the current counter and then
// advances the counter.
func (s *Sender) Encrypt(plaintext []byte) (*DataMessage, error) {
	if !s.Active {
		return nil, ErrInactive
	}
	if len(plaintext) > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLong, len(plaintext), MaxMessageSize)
	}
	if s.Counter == math.MaxUint32 {
		return nil, ErrCounterExhausted
	}
	key := DeriveMessageKey(&s.master, s.ID, s.Counter)
	defer kdf.Zero(key[:])
	nonce := Nonce(s.ID, s.Counter)
	sealed, err := s.cipher.Seal(key[:], nonce[:], plaintext, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("session: seal: %w", err)
	}
	msg := &DataMessage{SessionID: s.ID, Counter: s.Counter, Sealed: sealed}
	s.Counter++
	measure.Add(measure.SessionMessages, 1)
	measure.Add(measure.SessionDataBytes, int64(dataHeaderSize+len(sealed)))
	return msg, nil
}

// Sent returns how many messages this session has carried.
func (s *Sender) Sent() uint32 { return s.Counter - 1 }

// NeedsRenewal reports whether threshold messages have been sent, or the
// session expired.
func (s *Sender) NeedsRenewal(threshold uint32) bool {
	if !s.Active {
		return true
	}
	if !s.Expiry.IsZero() && time.Now().After(s.Expiry) {
		return true
	}
	return threshold > 0 && s.Sent() >= threshold
}

// Close zeroizes the master key and deactivates the session.
func (s *Sender) Close() {
	s.master.Zero()
	s.Active = false
}
