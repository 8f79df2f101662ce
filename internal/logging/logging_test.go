package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{" error ", LevelError},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Prefix: "test"})

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below WARN, got %q", buf.String())
	}

	l.Warn("warn %d", 1)
	l.Error("error %s", "two")

	out := buf.String()
	if !strings.Contains(out, "[WARN] test: warn 1") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] test: error two") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: LevelDebug, Output: &buf})

	l := root.WithComponent("view").WithField("map", "map_0")
	l.Info("redrawn")

	out := buf.String()
	if !strings.Contains(out, "{component=view, map=map_0}") {
		t.Errorf("fields not rendered in sorted order: %q", out)
	}

	buf.Reset()
	root.Info("plain")
	if strings.Contains(buf.String(), "component") {
		t.Error("derived fields leaked into parent logger")
	}
}

func TestDerivedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: LevelInfo, Output: &buf})
	child := root.WithComponent("hub")

	root.SetLevel(LevelError)
	child.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("child should follow root level, got %q", buf.String())
	}
	if child.Level() != LevelError {
		t.Errorf("child Level() = %v, want ERROR", child.Level())
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("never written")
	l.WithField("a", 1).Error("never written")
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatal("OrDefault(nil) returned nil")
	}
	l := Nop()
	if OrDefault(l) != l {
		t.Error("OrDefault should return the given logger")
	}
}
