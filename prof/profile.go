package prof

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Entry is a single timing measurement.
type Entry struct {
	Label string
	Dur   time.Duration
}

// Stat aggregates the entries sharing a label.
type Stat struct {
	Label string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average duration.
func (s Stat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// MaxEntries bounds the recorder between snapshots; later entries are
// counted as dropped.
const MaxEntries = 1 << 16

var (
	mu      sync.Mutex
	record  []Entry
	dropped int
)

// Track records the duration since start under label. Use as
// defer prof.Track(time.Now(), "label").
func Track(start time.Time, label string) {
	elapsed := time.Since(start)
	mu.Lock()
	if len(record) < MaxEntries {
		record = append(record, Entry{Label: label, Dur: elapsed})
	} else {
		dropped++
	}
	mu.Unlock()
}

// Dropped returns how many entries were discarded since the last snapshot.
func Dropped() int {
	mu.Lock()
	defer mu.Unlock()
	return dropped
}

// SnapshotAndReset returns the collected entries and clears them.
func SnapshotAndReset() []Entry {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Entry, len(record))
	copy(out, record)
	record = nil
	dropped = 0
	return out
}

// Summarize groups entries by label, sorted by total time descending.
func Summarize(entries []Entry) []Stat {
	idx := map[string]int{}
	var stats []Stat
	for _, e := range entries {
		i, ok := idx[e.Label]
		if !ok {
			i = len(stats)
			idx[e.Label] = i
			stats = append(stats, Stat{Label: e.Label})
		}
		s := &stats[i]
		s.Count++
		s.Total += e.Dur
		if e.Dur > s.Max {
			s.Max = e.Dur
		}
	}
	sort.SliceStable(stats, func(a, b int) bool { return stats[a].Total > stats[b].Total })
	return stats
}

// Report writes a summary table of entries to w.
func Report(w io.Writer, entries []Entry) {
	for _, s := range Summarize(entries) {
		fmt.Fprintf(w, "%-28s n=%-5d total=%-12v mean=%-12v max=%v\n", s.Label, s.Count, s.Total, s.Mean(), s.Max)
	}
}
