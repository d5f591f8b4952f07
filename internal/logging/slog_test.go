package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew_LevelsFilterOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, absent := range []string{"msg=dbg", "msg=inf"} {
		if strings.Contains(out, absent) {
			t.Fatalf("did not expect %q below warn level in output:\n%s", absent, out)
		}
	}
	for _, present := range []string{"level=WARN", "msg=wrn", "c=3", "level=ERROR", "msg=err", "d=4"} {
		if !strings.Contains(out, present) {
			t.Fatalf("expected %q in output:\n%s", present, out)
		}
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "DEBUG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug(context.Background(), "dbg", "kind", "passwords")

	if !strings.Contains(buf.String(), "level=DEBUG") || !strings.Contains(buf.String(), "kind=passwords") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.With("component", "vault").Info(context.Background(), "unlocked", "records", 3)

	for _, s := range []string{"level=INFO", "msg=unlocked", "component=vault", "records=3"} {
		if !strings.Contains(buf.String(), s) {
			t.Fatalf("expected %q in output, got:\n%s", s, buf.String())
		}
	}
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	log := Discard()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.Warn(ctx, "x")
	log.Error(ctx, "x")
	log.With("k", "v").Info(ctx, "y")
}
