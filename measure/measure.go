package measure

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
)

// Counter keys recorded by the protocol packages.
const (
	AuthPayload        = "auth/payload"
	TransportFragments = "transport/fragments"
	TransportRetries   = "transport/retries"
	TransportBytes     = "transport/bytes"
	SessionDataBytes   = "session/data_bytes"
	SessionMessages    = "session/messages"
	Handshakes         = "protocol/handshakes"
)

var enabled atomic.Bool

// Global is the process-wide counter set.
var Global = NewCounter()

func init() {
	enabled.Store(os.Getenv("MEASURE_SIZES") == "1")
}

// Enabled reports whether counters record anything.
func Enabled() bool { return enabled.Load() }

// SetEnabled toggles recording; used by tools and tests that want numbers
// without the environment variable.
func SetEnabled(on bool) { enabled.Store(on) }

// Human formats a byte count.
func Human(n int64) string {
	const (
		KiB = 1024
		MiB = 1024 * KiB
	)
	switch {
	case n >= MiB:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(MiB))
	case n >= KiB:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(KiB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Counter accumulates named integer totals.
type Counter struct {
	mu sync.Mutex
	m  map[string]int64
}

// NewCounter returns an empty counter set.
func NewCounter() *Counter {
	return &Counter{m: make(map[string]int64)}
}

// Add adds n to key when recording is enabled.
func (c *Counter) Add(key string, n int64) {
	if !Enabled() {
		return
	}
	c.mu.Lock()
	c.m[key] += n
	c.mu.Unlock()
}

// Get returns the current total for key.
func (c *Counter) Get(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key]
}

// SnapshotAndReset returns a copy of every total and clears them.
func (c *Counter) SnapshotAndReset() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	c.m = make(map[string]int64)
	return out
}

// Dump writes a sorted report to w.
func (c *Counter) Dump(w io.Writer) {
	if !Enabled() {
		return
	}
	c.mu.Lock()
	keys := make([]string, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "[measure] Size report:")
	for _, k := range keys {
		fmt.Fprintf(w, "[measure] %s = %s\n", k, Human(c.m[k]))
	}
	c.mu.Unlock()
}

// Section brackets f with begin/end markers when recording is enabled.
func Section(w io.Writer, name string, f func()) {
	if !Enabled() {
		f()
		return
	}
	fmt.Fprintf(w, "[measure] Begin %s\n", name)
	f()
	fmt.Fprintf(w, "[measure] End %s\n", name)
}

// Add records on Global.
func Add(key string, n int64) { Global.Add(key, n) }

// SnapshotAndReset drains Global.
func SnapshotAndReset() map[string]int64 { return Global.SnapshotAndReset() }
