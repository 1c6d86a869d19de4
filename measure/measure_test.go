package measure

import (
	"bytes"
	"strings"
	"testing"
)

func TestHuman(t *testing.T) {
	cases := map[int64]string{
		12:         "12 B",
		2048:       "2.0 KiB",
		3 << 20:    "3.0 MiB",
		1024 + 512: "1.5 KiB",
	}
	for in, want := range cases {
		if got := Human(in); got != want {
			t.Fatalf("Human(%d)=%q want %q", in, got, want)
		}
	}
}

func TestCounterGating(t *testing.T) {
	prev := Enabled()
	defer SetEnabled(prev)

	c := NewCounter()
	SetEnabled(false)
	c.Add("x", 5)
	if c.Get("x") != 0 {
		t.Fatalf("disabled counter recorded a value")
	}
	SetEnabled(true)
	c.Add("x", 5)
	c.Add("x", 7)
	if c.Get("x") != 12 {
		t.Fatalf("Get=%d want 12", c.Get("x"))
	}
	var buf bytes.Buffer
	c.Dump(&buf)
	if !strings.Contains(buf.String(), "x = 12 B") {
		t.Fatalf("dump missing entry: %q", buf.String())
	}
	snap := c.SnapshotAndReset()
	if snap["x"] != 12 || c.Get("x") != 0 {
		t.Fatalf("snapshot %v, after reset %d", snap, c.Get("x"))
	}
}
