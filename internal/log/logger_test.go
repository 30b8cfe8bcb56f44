package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestJSONLoggerCarriesComponentAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentBot)

	ctx := WithTraceID(WithLogger(context.Background(), logger), "upd_test")
	if TraceID(ctx) != "upd_test" {
		t.Fatalf("trace id = %q", TraceID(ctx))
	}
	FromContext(ctx).InfoContext(ctx, "handled", FieldChatID, int64(42))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec["component"] != ComponentBot || rec[FieldTraceID] != "upd_test" || rec[FieldChatID] != float64(42) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Component: ComponentApp}).
		With("run", 7).
		WithComponent(ComponentWorker)
	if logger.Component() != ComponentWorker {
		t.Fatalf("Component() = %q", logger.Component())
	}

	logger.Info("ready")
	out := buf.String()
	if n := strings.Count(out, `"component"`); n != 1 {
		t.Fatalf("component logged %d times: %s", n, out)
	}
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["component"] != ComponentWorker || rec["run"] != float64(7) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestTraceIDReachesPlainLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	logger.InfoContext(context.Background(), "no trace")
	if strings.Contains(buf.String(), FieldTraceID) {
		t.Fatalf("unexpected trace id: %s", buf.String())
	}
	buf.Reset()

	ctx := WithTraceID(context.Background(), "upd_abc")
	logger.Logger.WithGroup("req").InfoContext(ctx, "traced", "step", 1)
	if !strings.Contains(buf.String(), "upd_abc") {
		t.Fatalf("trace id missing: %s", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("component = %q", l.Component())
	}
	if id := NewTraceID(); !strings.HasPrefix(id, "upd_") || len(id) != 20 {
		t.Fatalf("trace id = %q", id)
	}
}

func TestFieldsToSlice(t *testing.T) {
	f := NewFields().WithOperation(OpClassify).WithChat(1, 2).WithError(nil)
	if len(f.ToSlice()) != 6 {
		t.Fatalf("fields = %v", f.ToSlice())
	}
}
