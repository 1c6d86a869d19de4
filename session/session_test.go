package session

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	"github.com/selfi123/Amortization-research-success/internal/log"
)

func testID(b byte) ID {
	var id ID
	for i := range id {
		id[i] = b + byte(i)
	}
	return id
}

func testMaster() MasterKey {
	ev := bytes.Repeat([]byte{0x5a}, 12)
	nonce := bytes.Repeat([]byte{0xc3}, 32)
	return DeriveMasterKey(ev, nonce)
}

func ciphers(t *testing.T) []aead.Cipher {
	t.Helper()
	var out []aead.Cipher
	for _, p := range []aead.Profile{aead.ProfileLegacy, aead.ProfileGCM} {
		c, err := aead.New(p)
		if err != nil {
			t.Fatalf("aead.New: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func TestMasterKeyDeterministic(t *testing.T) {
	a := testMaster()
	b := testMaster()
	if a != b {
		t.Fatalf("master key derivation is not deterministic")
	}
	c := DeriveMasterKey(bytes.Repeat([]byte{0x5a}, 12), bytes.Repeat([]byte{0xc4}, 32))
	if a == c {
		t.Fatalf("different nonce gave the same master key")
	}
}

func TestMessageKeysDistinct(t *testing.T) {
	m := testMaster()
	seen := map[[32]byte]bool{}
	for _, id := range []ID{testID(0), testID(1)} {
		for ctr := uint32(1); ctr <= 5; ctr++ {
			k := DeriveMessageKey(&m, id, ctr)
			if seen[k] {
				t.Fatalf("message key repeated for %x/%d", id, ctr)
			}
			seen[k] = true
		}
	}
}

func TestNonceLayout(t *testing.T) {
	n := Nonce(testID(1), 0x01020304)
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 1, 2, 3, 4}
	if !bytes.Equal(n[:], want) {
		t.Fatalf("nonce %x want %x", n, want)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	for _, c := range ciphers(t) {
		t.Run(c.Profile().String(), func(t *testing.T) {
			id := testID(7)
			s := NewSender(id, testMaster(), c, 0)
			e := NewEntry(id, testMaster(), nil, time.Time{})
			for i := 1; i <= 5; i++ {
				pt := []byte(fmt.Sprintf("reading #%d", i))
				msg, err := s.Encrypt(pt)
				if err != nil {
					t.Fatalf("Encrypt: %v", err)
				}
				if msg.Counter != uint32(i) {
					t.Fatalf("counter %d want %d", msg.Counter, i)
				}
				got, err := e.Decrypt(c, msg.Counter, msg.Sealed)
				if err != nil {
					t.Fatalf("Decrypt: %v", err)
				}
				if !bytes.Equal(got, pt) {
					t.Fatalf("plaintext mismatch")
				}
				if e.LastAccepted != uint32(i) {
					t.Fatalf("LastAccepted %d want %d", e.LastAccepted, i)
				}
			}
		})
	}
}

func TestReplayMonotonicity(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	id := testID(3)
	s := NewSender(id, testMaster(), c, 0)
	var msgs []*DataMessage
	for i := 0; i < 4; i++ {
		m, err := s.Encrypt([]byte("x"))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		msgs = append(msgs, m)
	}
	e := NewEntry(id, testMaster(), nil, time.Time{})
	if _, err := e.Decrypt(c, msgs[2].Counter, msgs[2].Sealed); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	for _, m := range msgs[:3] {
		if _, err := e.Decrypt(c, m.Counter, m.Sealed); !errors.Is(err, ErrReplay) {
			t.Fatalf("counter %d: expected ErrReplay, got %v", m.Counter, err)
		}
		if e.LastAccepted != 3 {
			t.Fatalf("LastAccepted moved to %d", e.LastAccepted)
		}
	}
	if _, err := e.Decrypt(c, msgs[3].Counter, msgs[3].Sealed); err != nil || e.LastAccepted != 4 {
		t.Fatalf("k+1 not accepted: %v (last=%d)", err, e.LastAccepted)
	}
}

func TestAuthFailureLeavesState(t *testing.T) {
	c, _ := aead.New(aead.ProfileLegacy)
	id := testID(4)
	s := NewSender(id, testMaster(), c, 0)
	m, _ := s.Encrypt([]byte("hello"))
	e := NewEntry(id, testMaster(), nil, time.Time{})
	bad := append([]byte(nil), m.Sealed...)
	bad[0] ^= 1
	if _, err := e.Decrypt(c, m.Counter, bad); !errors.Is(err, aead.ErrAuth) {
		t.Fatalf("expected aead.ErrAuth, got %v", err)
	}
	if e.LastAccepted != 0 {
		t.Fatalf("failed decrypt moved LastAccepted")
	}
	// a ciphertext spliced to another counter fails too
	if _, err := e.Decrypt(c, m.Counter+1, m.Sealed); !errors.Is(err, aead.ErrAuth) {
		t.Fatalf("spliced counter accepted: %v", err)
	}
	other := NewEntry(testID(5), testMaster(), nil, time.Time{})
	if _, err := other.Decrypt(c, m.Counter, m.Sealed); !errors.Is(err, aead.ErrAuth) {
		t.Fatalf("spliced session accepted: %v", err)
	}
}

func TestSenderLimitsAndRenewal(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	s := NewSender(testID(9), testMaster(), c, 0)
	if _, err := s.Encrypt(make([]byte, MaxMessageSize+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
	for i := 0; i < DefaultRenewThreshold; i++ {
		if s.NeedsRenewal(DefaultRenewThreshold) {
			t.Fatalf("renewal requested after %d messages", i)
		}
		if _, err := s.Encrypt([]byte("m")); err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
	}
	if !s.NeedsRenewal(DefaultRenewThreshold) {
		t.Fatalf("renewal not requested after threshold")
	}
	s.Close()
	if s.master != (MasterKey{}) {
		t.Fatalf("Close did not zeroize the master key")
	}
	if _, err := s.Encrypt([]byte("m")); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	s.Active, s.Counter = true, ^uint32(0)
	if _, err := s.Encrypt([]byte("m")); !errors.Is(err, ErrCounterExhausted) {
		t.Fatalf("expected ErrCounterExhausted, got %v", err)
	}
}

func TestSenderExpiry(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	s := NewSender(testID(9), testMaster(), c, time.Nanosecond)
	time.Sleep(time.Millisecond)
	if !s.NeedsRenewal(0) {
		t.Fatalf("expired session not flagged for renewal")
	}
}

func TestDataMessageCodec(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	s := NewSender(testID(1), testMaster(), c, 0)
	m, _ := s.Encrypt([]byte("payload"))
	b, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if b[0] != TypeData || len(b) != 15+len(m.Sealed) {
		t.Fatalf("unexpected header %x", b[:15])
	}
	var got DataMessage
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.SessionID != m.SessionID || got.Counter != m.Counter || !bytes.Equal(got.Sealed, m.Sealed) {
		t.Fatalf("decoded message differs")
	}
	for name, bad := range map[string][]byte{
		"short":     b[:10],
		"type":      append([]byte{0x04}, b[1:]...),
		"truncated": b[:len(b)-1],
		"no tag":    {TypeData, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0},
	} {
		if err := got.UnmarshalBinary(bad); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestTableEviction(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	tbl := NewTable(3, time.Hour, c)
	tbl.SetLogger(log.Discard())
	base := time.Unix(1_000_000, 0)
	step := 0
	tbl.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	peer := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9}
	for i := byte(0); i < 3; i++ {
		if err := tbl.Create(testID(i*10), testMaster(), peer); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := tbl.Create(testID(0), testMaster(), peer); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	// the first session has the soonest expiry and must go
	if err := tbl.Create(testID(30), testMaster(), peer); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len=%d want 3", tbl.Len())
	}
	if _, ok := tbl.Lookup(testID(0)); ok {
		t.Fatalf("oldest session was not evicted")
	}
	for _, b := range []byte{10, 20, 30} {
		if _, ok := tbl.Lookup(testID(b)); !ok {
			t.Fatalf("session %d missing", b)
		}
	}
	if !tbl.Remove(testID(10)) || tbl.Remove(testID(10)) {
		t.Fatalf("Remove did not behave")
	}
}

func TestTableDecrypt(t *testing.T) {
	c, _ := aead.New(aead.ProfileLegacy)
	tbl := NewTable(0, 0, c)
	tbl.SetLogger(log.Discard())
	id := testID(2)
	if err := tbl.Create(id, testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s := NewSender(id, testMaster(), c, 0)
	m1, _ := s.Encrypt([]byte("one"))
	m2, _ := s.Encrypt([]byte("two"))

	if pt, err := tbl.Decrypt(m2); err != nil || string(pt) != "two" {
		t.Fatalf("Decrypt m2: %q %v", pt, err)
	}
	if _, err := tbl.Decrypt(m1); !errors.Is(err, ErrReplay) {
		t.Fatalf("late m1 should be a replay, got %v", err)
	}
	if e, _ := tbl.Lookup(id); e.LastAccepted != 2 {
		t.Fatalf("LastAccepted=%d want 2", e.LastAccepted)
	}
	unknown := *m2
	unknown.SessionID = testID(99)
	if _, err := tbl.Decrypt(&unknown); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestTableExpiry(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	tbl := NewTable(2, time.Minute, c)
	tbl.SetLogger(log.Discard())
	clock := time.Unix(1_000_000, 0)
	tbl.now = func() time.Time { return clock }

	id := testID(4)
	if err := tbl.Create(id, testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s := NewSender(id, testMaster(), c, 0)
	m1, _ := s.Encrypt([]byte("fresh"))
	m2, _ := s.Encrypt([]byte("late"))
	if _, err := tbl.Decrypt(m1); err != nil {
		t.Fatalf("Decrypt before expiry: %v", err)
	}

	clock = clock.Add(2 * time.Hour)
	_, err := tbl.Decrypt(m2)
	if !errors.Is(err, ErrUnknownSession) || !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired unknown session, got %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expired slot not freed, Len=%d", tbl.Len())
	}
	if _, ok := tbl.Lookup(id); ok {
		t.Fatalf("Lookup returned an expired session")
	}
	// an expired id may be installed again
	if err := tbl.Create(id, testMaster(), nil); err != nil {
		t.Fatalf("Create after expiry: %v", err)
	}
}

func TestTableLookupExpired(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	tbl := NewTable(2, time.Minute, c)
	tbl.SetLogger(log.Discard())
	clock := time.Unix(1_000_000, 0)
	tbl.now = func() time.Time { return clock }
	if err := tbl.Create(testID(6), testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	clock = clock.Add(time.Minute + time.Second)
	if _, ok := tbl.Lookup(testID(6)); ok {
		t.Fatalf("Lookup returned an expired session")
	}
	if tbl.slots[0] != nil || tbl.slots[1] != nil {
		t.Fatalf("expired entry still occupies a slot")
	}
}

func TestTableReusesExpiredSlot(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	tbl := NewTable(2, time.Hour, c)
	tbl.SetLogger(log.Discard())
	clock := time.Unix(1_000_000, 0)
	tbl.now = func() time.Time { return clock }

	if err := tbl.Create(testID(1), testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	clock = clock.Add(30 * time.Minute)
	if err := tbl.Create(testID(2), testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// session 1 is past its expiry, session 2 still has half an hour
	clock = clock.Add(45 * time.Minute)
	if err := tbl.Create(testID(3), testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := tbl.Lookup(testID(2)); !ok {
		t.Fatalf("live session evicted while an expired slot was available")
	}
	if _, ok := tbl.Lookup(testID(3)); !ok {
		t.Fatalf("new session missing")
	}
	if _, ok := tbl.Lookup(testID(1)); ok {
		t.Fatalf("expired session still visible")
	}
}

func TestTableLookupOmitsKey(t *testing.T) {
	c, _ := aead.New(aead.ProfileGCM)
	tbl := NewTable(0, 0, c)
	tbl.SetLogger(log.Discard())
	id := testID(8)
	if err := tbl.Create(id, testMaster(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	snap, ok := tbl.Lookup(id)
	if !ok {
		t.Fatalf("Lookup: session missing")
	}
	if snap.master != (MasterKey{}) {
		t.Fatalf("snapshot carries the master key")
	}
	if snap.ID != id {
		t.Fatalf("snapshot ID=%x want %x", snap.ID, id)
	}
	// the table copy must be untouched
	s := NewSender(id, testMaster(), c, 0)
	m, _ := s.Encrypt([]byte("still works"))
	if pt, err := tbl.Decrypt(m); err != nil || string(pt) != "still works" {
		t.Fatalf("Decrypt after Lookup: %q %v", pt, err)
	}
}
