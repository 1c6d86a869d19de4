package transport

import (
	"errors"
	"fmt"
	"time"
)

// DefaultStaleAfter is how long a partial transfer may go without a fragment
// before a different transfer may replace it. It matches the time a sender
// spends retrying one fragment.
const DefaultStaleAfter = DefaultTimeout * DefaultAttempts

// ErrTransferInProgress is returned for a fragment that belongs to a
// different transfer than the fresh one being reassembled.
var ErrTransferInProgress = errors.New("transport: another transfer in progress")

// Reassembler rebuilds one transfer at a time. Fragments may arrive in any
// order and more than once; the transfer completes only when the last index
// has been seen and every index has been written.
type Reassembler struct {
	// StaleAfter overrides DefaultStaleAfter when positive.
	StaleAfter time.Duration

	now      func() time.Time
	lastSeen time.Time
	tag      uint16
	total    int
	buf      []byte
	have     []bool
	count    int
	lastLen  int
	active   bool
}

// Add stores f and returns the assembled payload once complete, after which
// the reassembler is reset. A fragment with a different tag or total than the
// transfer in progress is rejected with ErrTransferInProgress, unless that
// transfer has gone stale, in which case the fragment starts a new one.
func (r *Reassembler) Add(f *Fragment) ([]byte, error) {
	total := int(f.Total)
	if total == 0 || total > MaxFragments {
		return nil, fmt.Errorf("%w: total %d", ErrMalformed, total)
	}
	index := int(f.Index)
	if index >= total {
		return nil, fmt.Errorf("%w: index %d of %d", ErrMalformed, index, total)
	}
	last := index == total-1
	if len(f.Payload) == 0 || len(f.Payload) > PayloadSize || (!last && len(f.Payload) != PayloadSize) {
		return nil, fmt.Errorf("%w: fragment %d carries %d bytes", ErrMalformed, index, len(f.Payload))
	}
	now := r.clock()
	if r.active && (r.tag != f.Tag || r.total != total) {
		if now.Sub(r.lastSeen) < r.staleAfter() {
			return nil, fmt.Errorf("%w: tag %#x total %d", ErrTransferInProgress, f.Tag, total)
		}
		r.Reset()
	}
	if !r.active {
		r.start(f.Tag, total)
	}
	if last {
		if r.have[index] && r.lastLen != len(f.Payload) {
			return nil, fmt.Errorf("%w: last fragment length changed from %d to %d", ErrMalformed, r.lastLen, len(f.Payload))
		}
		r.lastLen = len(f.Payload)
	}
	r.lastSeen = now
	copy(r.buf[index*PayloadSize:], f.Payload)
	if !r.have[index] {
		r.have[index] = true
		r.count++
	}
	if !r.Complete() {
		return nil, nil
	}
	out := make([]byte, (r.total-1)*PayloadSize+r.lastLen)
	copy(out, r.buf)
	r.Reset()
	return out, nil
}

func (r *Reassembler) start(tag uint16, total int) {
	r.Reset()
	r.tag = tag
	r.total = total
	r.buf = make([]byte, total*PayloadSize)
	r.have = make([]bool, total)
	r.active = true
}

// Complete reports whether every fragment of the current transfer arrived.
func (r *Reassembler) Complete() bool {
	return r.active && r.count == r.total && r.have[r.total-1]
}

// Missing returns the indices not yet received.
func (r *Reassembler) Missing() []int {
	var out []int
	for i, ok := range r.have {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}

func (r *Reassembler) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Reassembler) staleAfter() time.Duration {
	if r.StaleAfter > 0 {
		return r.StaleAfter
	}
	return DefaultStaleAfter
}

// Reset discards any partial transfer. StaleAfter is kept.
func (r *Reassembler) Reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}
	*r = Reassembler{StaleAfter: r.StaleAfter, now: r.now}
}
