package main

import "testing"

func TestHandshakes(t *testing.T) {
	cases := []struct{ n, threshold, want int }{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{7, 1, 7},
	}
	for _, c := range cases {
		if got := handshakes(c.n, c.threshold); got != c.want {
			t.Fatalf("handshakes(%d, %d) = %d, want %d", c.n, c.threshold, got, c.want)
		}
	}
}

func TestCumulativeBytes(t *testing.T) {
	b := &baseline{AuthBytes: 1000, DataBytes: 50}
	if got := cumulativeBytes(b, 40, 20); got != 2*1000+40*50 {
		t.Fatalf("amortized cost %v", got)
	}
	if got := cumulativeBytes(b, 40, 1); got != 40*1050 {
		t.Fatalf("unamortized cost %v", got)
	}
}

func TestParseThresholds(t *testing.T) {
	got, err := parseThresholds(" 1, 5,,20 ")
	if err != nil || len(got) != 3 || got[2] != 20 {
		t.Fatalf("got %v, %v", got, err)
	}
	for _, bad := range []string{"", "0", "x", "5,-1"} {
		if _, err := parseThresholds(bad); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}
