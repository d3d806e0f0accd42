package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWithBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-1")
	ctx = WithStage(ctx, "render")
	ctx = WithPath(ctx, "pages/index.md")
	ctx = WithBuildID(ctx, "build-2")

	lc := GetContext(ctx)
	if lc.BuildID != "build-2" {
		t.Errorf("expected build-2, got %s", lc.BuildID)
	}
	if lc.Stage != "render" || lc.Path != "pages/index.md" {
		t.Errorf("unexpected context %+v", lc)
	}
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())
	if lc.BuildID != "" || lc.Stage != "" || lc.Path != "" {
		t.Error("expected empty context")
	}
}

func TestInfoContext(t *testing.T) {
	buf := captureDefault(t)

	ctx := WithBuildID(context.Background(), "build-1")
	ctx = WithPath(ctx, "about.md")

	InfoContext(ctx, "test message", slog.String("extra", "value"))

	output := buf.String()
	for _, want := range []string{"build-1", "about.md", "test message", "extra"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log output %s", want, output)
		}
	}
}

func TestLevels(t *testing.T) {
	buf := captureDefault(t)
	ctx := WithStage(context.Background(), "write")

	DebugContext(ctx, "debug message")
	WarnContext(ctx, "warning message")
	ErrorContext(ctx, "error message")

	output := buf.String()
	for _, want := range []string{`"level":"DEBUG"`, `"level":"WARN"`, `"level":"ERROR"`, `"stage":"write"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output %s", want, output)
		}
	}
}
