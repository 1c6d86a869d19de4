package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestModuleAndWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json", slog.LevelDebug).Module("gateway").With("peer", "10.0.0.1:5678")
	l.Info("session created", "sid", "ab12")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	for k, want := range map[string]string{"module": "gateway", "peer": "10.0.0.1:5678", "sid": "ab12", "msg": "session created"} {
		if entry[k] != want {
			t.Fatalf("%s = %v, want %q", k, entry[k], want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "text", slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "": slog.LevelInfo, "warning": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)
	var buf bytes.Buffer
	SetDefault(New(&buf, "text", slog.LevelInfo))
	SetDefault(nil)
	Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Fatalf("default logger not replaced: %q", buf.String())
	}
}
