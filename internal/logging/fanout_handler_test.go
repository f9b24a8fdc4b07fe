package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevels(t *testing.T) {
	var infoBuf, warnBuf bytes.Buffer
	info := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	warn := slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(TeeHandler(info, warn))

	if !logger.Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected fanout enabled when any handler accepts the level")
	}
	logger.Info("chunk planned")
	logger.Warn("chunk failed")

	if !strings.Contains(infoBuf.String(), "chunk planned") || !strings.Contains(infoBuf.String(), "chunk failed") {
		t.Fatalf("info handler missing records: %s", infoBuf.String())
	}
	if strings.Contains(warnBuf.String(), "chunk planned") {
		t.Fatalf("warn handler received info record: %s", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "chunk failed") {
		t.Fatalf("warn handler missing warning: %s", warnBuf.String())
	}
}

func TestFanoutHandlerWithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(TeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil)))
	logger.With(slog.String("title", "Lecture")).Info("planned")

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		if !strings.Contains(buf.String(), `"title":"Lecture"`) {
			t.Fatalf("handler %s missing attribute: %s", name, buf.String())
		}
	}
}
