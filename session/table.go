package session

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/selfi123/Amortization-research-success/aead"
	"github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/kdf"
	"github.com/selfi123/Amortization-research-success/prof"
)

const (
	// DefaultCapacity is the number of concurrent sessions a gateway keeps.
	DefaultCapacity = 16
	// DefaultTTL is the session lifetime assigned at creation.
	DefaultTTL = time.Hour
)

var (
	ErrReplay         = errors.New("session: replayed or stale counter")
	ErrUnknownSession = errors.New("session: unknown session")
	ErrDuplicateID    = errors.New("session: session id already in use")
	ErrExpired        = errors.New("session: session expired")
)

// Entry is the gateway side of a session. LastAccepted only increases and
// only after a message authenticates.
type Entry struct {
	ID           ID
	LastAccepted uint32
	Peer         net.Addr
	Expiry       time.Time

	master MasterKey
}

// NewEntry builds a standalone entry.
func NewEntry(id ID, master MasterKey, peer net.Addr, expiry time.Time) *Entry {
	return &Entry{ID: id, master: master, Peer: peer, Expiry: expiry}
}

// Decrypt checks the counter, then derives the message key and opens sealed.
// Replays are rejected before any key derivation. On any error the entry is
// unchanged.
func (e *Entry) Decrypt(c aead.Cipher, counter uint32, sealed []byte) ([]byte, error) {
	defer prof.Track(time.Now(), "session.Decrypt")
	if counter <= e.LastAccepted {
		return nil, fmt.Errorf("%w: counter %d, last accepted %d", ErrReplay, counter, e.LastAccepted)
	}
	key := DeriveMessageKey(&e.master, e.ID, counter)
	defer kdf.Zero(key[:])
	nonce := Nonce(e.ID, counter)
	pt, err := c.Open(key[:], nonce[:], sealed, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("session: counter %d: %w", counter, err)
	}
	e.LastAccepted = counter
	return pt, nil
}

func (e *Entry) zero() {
	e.master.Zero()
	*e = Entry{}
}

// Table is a fixed-capacity session store. Expired entries are wiped and
// freed when next touched. When full, creating a session evicts the entry
// with the soonest expiry after wiping its key.
type Table struct {
	mu     sync.Mutex
	slots  []*Entry
	cipher aead.Cipher
	ttl    time.Duration
	now    func() time.Time
	log    *log.Logger
}

// NewTable returns a table with capacity slots whose entries decrypt with c.
func NewTable(capacity int, ttl time.Duration, c aead.Cipher) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Table{
		slots:  make([]*Entry, capacity),
		cipher: c,
		ttl:    ttl,
		now:    time.Now,
		log:    log.Default().Module("session"),
	}
}

// SetLogger replaces the table logger.
func (t *Table) SetLogger(l *log.Logger) { t.log = l }

// Create installs a session for peer.
func (t *Table) Create(id ID, master MasterKey, peer net.Addr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.sweep(now)
	if t.find(id) >= 0 {
		return fmt.Errorf("%w: %x", ErrDuplicateID, id[:])
	}
	slot := -1
	for i, e := range t.slots {
		if e == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = 0
		for i := 1; i < len(t.slots); i++ {
			if t.slots[i].Expiry.Before(t.slots[slot].Expiry) {
				slot = i
			}
		}
		old := t.slots[slot]
		t.log.Info("evicting session", "sid", fmt.Sprintf("%x", old.ID[:]), "expiry", old.Expiry)
		old.zero()
	}
	t.slots[slot] = NewEntry(id, master, peer, now.Add(t.ttl))
	return nil
}

// sweep frees every entry whose expiry has passed.
func (t *Table) sweep(now time.Time) {
	for i, e := range t.slots {
		if e != nil && now.After(e.Expiry) {
			t.drop(i, "expired")
		}
	}
}

func (t *Table) drop(i int, reason string) {
	e := t.slots[i]
	t.log.Debug("dropping session", "sid", fmt.Sprintf("%x", e.ID[:]), "reason", reason)
	e.zero()
	t.slots[i] = nil
}

// live returns the slot of a non-expired session id. An expired entry is
// freed and reported as ErrExpired, which also matches ErrUnknownSession.
func (t *Table) live(id ID) (int, error) {
	i := t.find(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %x", ErrUnknownSession, id[:])
	}
	if t.now().After(t.slots[i].Expiry) {
		t.drop(i, "expired")
		return -1, fmt.Errorf("%w: %w: %x", ErrUnknownSession, ErrExpired, id[:])
	}
	return i, nil
}

func (t *Table) find(id ID) int {
	for i, e := range t.slots {
		if e != nil && e.ID == id {
			return i
		}
	}
	return -1
}

// Lookup returns a snapshot of the live entry for id. The snapshot carries
// no key material.
func (t *Table) Lookup(id ID) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.live(id)
	if err != nil {
		return Entry{}, false
	}
	e := *t.slots[i]
	e.master = MasterKey{}
	return e, true
}

// Remove wipes and drops the entry for id.
func (t *Table) Remove(id ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.find(id)
	if i < 0 {
		return false
	}
	t.drop(i, "removed")
	return true
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweep(t.now())
	n := 0
	for _, e := range t.slots {
		if e != nil {
			n++
		}
	}
	return n
}

// Decrypt routes msg to its session. Failures leave every entry unchanged.
func (t *Table) Decrypt(msg *DataMessage) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.live(msg.SessionID)
	if err != nil {
		return nil, err
	}
	return t.slots[i].Decrypt(t.cipher, msg.Counter, msg.Sealed)
}
