package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	Get().Info(context.Background(), "hello", String("key", "value"), Int("n", 7))

	out := buf.String()
	for _, want := range []string{"hello", "key=value", "n=7", "level=INFO"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log := Get()
	log.Debug(context.Background(), "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line emitted at info level")
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug(context.Background(), "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug line missing after lowering the level")
	}
}

func TestSetLevelString(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "", " INFO "} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("level %q: unexpected error: %v", level, err)
		}
	}
	if err := SetLevelString("chatty"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNamedLogger(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	Get().Named("store").Info(context.Background(), "ready", Err(errors.New("none")))
	if !strings.Contains(buf.String(), "store.error") {
		t.Errorf("expected grouped fields, got: %s", buf.String())
	}
}
