package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/selfi123/Amortization-research-success/internal/log"
	"github.com/selfi123/Amortization-research-success/measure"
)

const (
	DefaultTimeout  = 2 * time.Second
	DefaultAttempts = 5
)

// ErrTimeout means a fragment exhausted its attempts without an ack.
var ErrTimeout = errors.New("transport: fragment not acknowledged")

// State is the per-fragment sender state.
type State int

const (
	Idle State = iota
	WaitingAck
	Acked
	TimedOut
	Aborted
	Done
)

var stateNames = [...]string{"idle", "waiting-ack", "acked", "timed-out", "aborted", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sender transmits payloads one fragment at a time, waiting for the matching
// ack before moving on. A transfer that runs out of attempts on any fragment
// is aborted; the caller starts over with fresh material.
type Sender struct {
	Link     Link
	Tag      uint16
	Timeout  time.Duration
	Attempts int
	// Deliver receives datagrams that are not acks while the sender waits,
	// so replies from the peer are not lost.
	Deliver  func(b []byte)
	// OnState observes every state transition.
	OnState  func(index int, s State)

	log   *log.Logger
	state State
}

// NewSender returns a sender with the default tag, timeout and attempts.
func NewSender(l Link) *Sender {
	return &Sender{
		Link:     l,
		Tag:      DefaultTag,
		Timeout:  DefaultTimeout,
		Attempts: DefaultAttempts,
		log:      log.Default().Module("transport"),
	}
}

// SetLogger replaces the sender logger.
func (s *Sender) SetLogger(l *log.Logger) { s.log = l }

// State returns the state after the last transition.
func (s *Sender) State() State { return s.state }

func (s *Sender) enter(index int, st State) {
	s.state = st
	if s.OnState != nil {
		s.OnState(index, st)
	}
}

// Send delivers payload or returns ErrTimeout (wrapped with the fragment
// index) once a fragment exhausts its attempts. Cancelling ctx aborts.
func (s *Sender) Send(ctx context.Context, payload []byte) error {
	frags, err := Split(s.Tag, payload)
	if err != nil {
		return err
	}
	if s.log == nil {
		s.log = log.Default().Module("transport")
	}
	s.enter(-1, Idle)
	s.log.Debug("sending payload", "bytes", len(payload), "fragments", len(frags))
	for i := range frags {
		if err := s.sendFragment(ctx, &frags[i]); err != nil {
			s.enter(i, Aborted)
			s.log.Warn("transfer aborted", "fragment", i, "err", err)
			return err
		}
	}
	s.enter(len(frags)-1, Done)
	return nil
}

func (s *Sender) sendFragment(ctx context.Context, f *Fragment) error {
	wire, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	index := int(f.Index)
	attempts := max(s.Attempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			measure.Add(measure.TransportRetries, 1)
			s.log.Debug("retrying fragment", "fragment", index, "attempt", attempt)
		}
		if err := s.Link.Send(ctx, wire); err != nil {
			return fmt.Errorf("transport: send fragment %d: %w", index, err)
		}
		measure.Add(measure.TransportFragments, 1)
		measure.Add(measure.TransportBytes, int64(len(wire)))
		s.enter(index, WaitingAck)

		acked, err := s.awaitAck(ctx, f.Index)
		if err != nil {
			return err
		}
		if acked {
			s.enter(index, Acked)
			return nil
		}
		s.enter(index, TimedOut)
	}
	return fmt.Errorf("%w: fragment %d after %d attempts", ErrTimeout, index, attempts)
}

// awaitAck waits one timeout period for an ack of index. It returns
// (false, nil) on timeout and an error only if ctx ends or the link fails.
func (s *Sender) awaitAck(ctx context.Context, index uint16) (bool, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		b, err := s.Link.Recv(wctx)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return false, nil
			}
			return false, fmt.Errorf("transport: await ack %d: %w", index, err)
		}
		if len(b) == 0 {
			continue
		}
		if b[0] != TypeAck {
			if s.Deliver != nil {
				s.Deliver(b)
			}
			continue
		}
		var a Ack
		if err := a.UnmarshalBinary(b); err != nil {
			continue
		}
		if a.Index == index {
			return true, nil
		}
		// stale ack for an earlier fragment
	}
}
