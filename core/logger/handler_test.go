package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func captureLine(t *testing.T, format logFormat, component string, emit func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	emit(slog.New(h).With("component", component))
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUserID(ctx, "u-7")

	line := captureLine(t, formatKV, "api", func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "select.ok",
			slog.String("cause", "unit"),
			slog.String("status", "OK"),
			slog.String("mode", "range"),
		)
	})

	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=api", "event=select.ok", "status=ok", "rid=rid-123", "user_id=u-7", "mode=range", "cause=unit"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %d, want %d (%s)", len(tokens), len(want), line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestHandlerJSONOrder(t *testing.T) {
	ctx := WithUpdateMeta(context.Background(), 11, 22, 33)

	line := captureLine(t, formatJSON, "tg", func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelError, "send.failed",
			slog.String("err", "boom"),
			slog.String("status", "fail"),
		)
	})

	order := []string{`{"ts":`, `"level":"ERROR"`, `"component":"tg"`, `"event":"send.failed"`, `"status":"fail"`, `"update_id":11`, `"user_id":"22"`, `"chat_id":33`, `"err":"boom"`}
	pos := -1
	for _, p := range order {
		idx := strings.Index(line, p)
		if idx <= pos {
			t.Fatalf("%s out of order in %s", p, line)
		}
		pos = idx
	}
}

func TestHandlerCompactsTelegramRID(t *testing.T) {
	raw := BuildRID(12, 34, 56)
	ctx := WithRID(context.Background(), raw)

	kv := captureLine(t, formatKV, "tg", func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "rid.test")
	})
	if !strings.Contains(kv, "rid="+CompactRID(raw)) {
		t.Fatalf("expected compact rid, got %s", kv)
	}
	if strings.Contains(kv, "rid_full=") {
		t.Fatalf("rid_full must be omitted in kv output: %s", kv)
	}

	js := captureLine(t, formatJSON, "tg", func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "rid.test")
	})
	if !strings.Contains(js, `"rid":"c.y.1k"`) || !strings.Contains(js, `"rid_full":"12:34:56"`) {
		t.Fatalf("unexpected rid fields: %s", js)
	}
}

func TestHandlerKeepsUUIDRID(t *testing.T) {
	const rid = "0b6e2c2a-8f6d-4a52-9d3c-2f1b1c0e9a11"
	line := captureLine(t, formatKV, "api", func(l *slog.Logger) {
		LogEvent(WithRID(context.Background(), rid), l, slog.LevelInfo, "request")
	})
	if !strings.Contains(line, "rid="+rid) {
		t.Fatalf("uuid rid altered: %s", line)
	}
}

func TestHandlerDurationAndDefaults(t *testing.T) {
	line := captureLine(t, formatKV, "", func(l *slog.Logger) {
		l.LogAttrs(context.Background(), slog.LevelInfo, "",
			slog.Duration("duration", 1500*time.Microsecond),
			slog.Duration("backoff", 2*time.Second),
			slog.String("empty", ""),
		)
	})
	for _, want := range []string{"component=app", "event=unknown", "duration_ms=2", "backoff_ms=2000"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
	if strings.Contains(line, "empty=") {
		t.Fatalf("empty attr should be pruned: %s", line)
	}
}

func TestHandlerQuotesKVValues(t *testing.T) {
	line := captureLine(t, formatKV, "api", func(l *slog.Logger) {
		LogEvent(context.Background(), l, slog.LevelWarn, "bad", slog.String("err", "invalid month: 13"))
	})
	if !strings.Contains(line, `err="invalid month: 13"`) {
		t.Fatalf("expected quoted value: %s", line)
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 0)
	h := newStructuredHandler(handlerConfig{level: slog.LevelWarn, writer: aw, format: formatKV})
	l := slog.New(h)
	l.Info("dropped")
	l.Warn("kept")
	if err := aw.Close(); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "event=kept") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for range 6 {
		got = append(got, s.Allow())
	}
	want := []bool{true, false, false, true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allow #%d = %v, want %v", i, got[i], want[i])
		}
	}

	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must pass everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/50": {1, 50},
		"20":   {1, 20},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for in, want := range cases {
		num, den := parseRatioSpec(in)
		if num != want[0] || den != want[1] {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", in, num, den, want[0], want[1])
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("Январь", 3); got != "Янв" {
		t.Fatalf("SanitizeLimit runes = %q", got)
	}
}

func TestNilLoggerHelpersAreSafe(t *testing.T) {
	saved := L
	L = nil
	defer func() { L = saved }()
	Info(context.Background(), "api", "noop")
	if Component("api") != nil {
		t.Fatal("Component must be nil before init")
	}
}

func TestStatusOfAndElapsed(t *testing.T) {
	if got := StatusOf(nil); got != "ok" {
		t.Fatalf("StatusOf(nil) = %q", got)
	}
	got := StatusOf(errors.New("boom"))
	if got != "fail" || !statusNames[got] {
		t.Fatalf("StatusOf(err) = %q, want a known failure status", got)
	}
	if ms := toMS(1500 * time.Microsecond); ms != 2 {
		t.Fatalf("toMS(1.5ms) = %d", ms)
	}
	if ms := toMS(-time.Second); ms != 0 {
		t.Fatalf("toMS(negative) = %d", ms)
	}
	if ms := Elapsed(time.Now().Add(time.Hour)); ms != 0 {
		t.Fatalf("Elapsed(future) = %d", ms)
	}
	if ms := Elapsed(time.Now().Add(-3 * time.Second)); ms < 3000 {
		t.Fatalf("Elapsed(3s ago) = %d", ms)
	}
}
