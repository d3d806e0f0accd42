package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

type reportingError struct{ msg string }

func (e *reportingError) Error() string  { return e.msg }
func (e *reportingError) Report() string { return "report:\n" + e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: 0,
		},
		{
			name:     "classified validation error",
			err:      NewError(CategoryValidation, "invalid input").Build(),
			expected: 2,
		},
		{
			name:     "config error",
			err:      ConfigError("bad config").Build(),
			expected: 7,
		},
		{
			name:     "compile error",
			err:      CompileError("bad template").Build(),
			expected: 9,
		},
		{
			name:     "wrapped translation error",
			err:      fmt.Errorf("outer: %w", TranslationError("unbalanced").Build()),
			expected: 9,
		},
		{
			name:     "build error",
			err:      BuildError("build failed").Build(),
			expected: 11,
		},
		{
			name:     "unclassified error",
			err:      &reportingError{msg: "unknown error"},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	t.Run("verbose uses report", func(t *testing.T) {
		adapter := NewCLIErrorAdapter(true, slog.Default())
		got := adapter.FormatError(&reportingError{msg: "boom"})
		if got != "report:\nboom" {
			t.Errorf("FormatError() = %q", got)
		}
	})

	t.Run("reporter found through a classified wrapper", func(t *testing.T) {
		adapter := NewCLIErrorAdapter(true, slog.Default())
		wrapped := WrapError(&reportingError{msg: "deep"}, CategoryRender, "render failed").Build()
		got := adapter.FormatError(wrapped)
		if got != "report:\ndeep" {
			t.Errorf("FormatError() = %q", got)
		}
	})

	t.Run("internal errors are hidden without verbose", func(t *testing.T) {
		adapter := NewCLIErrorAdapter(false, slog.Default())
		got := adapter.FormatError(InternalError("secret detail").Build())
		if strings.Contains(got, "secret detail") {
			t.Errorf("FormatError() leaked internal detail: %q", got)
		}
	})

	t.Run("user-facing categories are shown", func(t *testing.T) {
		adapter := NewCLIErrorAdapter(false, slog.Default())
		got := adapter.FormatError(CompileError("unexpected token").Build())
		if !strings.Contains(got, "unexpected token") {
			t.Errorf("FormatError() = %q", got)
		}
	})
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	var out bytes.Buffer
	adapter.out = &out

	code := adapter.HandleError(ConfigError("missing source_dir").WithContext("path", "grain.yaml").Build())
	if code != 7 {
		t.Fatalf("HandleError() = %d, want 7", code)
	}
	if !strings.Contains(out.String(), "missing source_dir") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Hint: check the site configuration file") {
		t.Errorf("expected hint on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "path=grain.yaml") {
		t.Errorf("expected context in log, got %q", logs.String())
	}
}
