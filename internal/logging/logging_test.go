package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("test message", "key", "value")

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if parsed["msg"] != "test message" {
		t.Errorf("msg = %v, want 'test message'", parsed["msg"])
	}
	if parsed["key"] != "value" {
		t.Errorf("key = %v, want 'value'", parsed["key"])
	}
}

func TestHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	now := time.Now()
	logger.Info("hello world", "foo", "value")

	output := buf.String()
	for _, want := range []string{"INFO", "hello world", "foo=value", now.Format(time.Kitchen)} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %q", want, output)
		}
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil)).With("agent", "claude-code").WithGroup("loader")

	logger.Info("message", "name", "skills")

	output := buf.String()
	if !strings.Contains(output, "agent=claude-code") {
		t.Errorf("expected common attribute in output, got: %q", output)
	}
	if !strings.Contains(output, "loader.name=skills") {
		t.Errorf("expected grouped attribute in output, got: %q", output)
	}
}

func TestHandler_Enabled(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := t.Context()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected Info level to be disabled when min level is Warn")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("expected Error level to be enabled")
	}
}

func TestHandler_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil))

	logger.Info("registry auth", "password", "hunter22secret", "authToken", "abc")

	output := buf.String()
	if strings.Contains(output, "hunter22secret") {
		t.Error("password value should be redacted")
	}
	if !strings.Contains(output, "password=****cret") {
		t.Errorf("expected masked password, got: %q", output)
	}
	if !strings.Contains(output, "authToken=********") {
		t.Errorf("expected fully masked short token, got: %q", output)
	}
}

func TestMultiHandler_FansOut(t *testing.T) {
	var text, js bytes.Buffer
	logger := slog.New(NewMultiHandler(
		NewHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&js, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	logger.Debug("debug only")

	if text.Len() != 0 {
		t.Errorf("text handler should skip debug, got %q", text.String())
	}
	if !strings.Contains(js.String(), "debug only") {
		t.Errorf("json handler should receive debug, got %q", js.String())
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{-1, slog.LevelWarn},
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{3, LevelTrace},
		{7, LevelTrace},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := NewDiscard()
	ctx := NewContext(t.Context(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext() should return the stored logger")
	}
	if FromContext(t.Context()) != slog.Default() {
		t.Error("FromContext() without a logger should return slog.Default()")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hooks.log")
	logger, f, err := OpenFile(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	logger.Info("hook ran", "hook", "autoupdate")
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"hook":"autoupdate"`) {
		t.Errorf("log file missing attribute: %s", data)
	}
}

func TestSupportsColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if supportsColor(true) {
		t.Error("NO_COLOR should disable color")
	}
	os.Unsetenv("NO_COLOR")
	t.Setenv("TERM", "dumb")
	if supportsColor(true) {
		t.Error("TERM=dumb should disable color")
	}
	t.Setenv("TERM", "xterm-256color")
	if supportsColor(false) {
		t.Error("non-TTY should disable color")
	}
	if !supportsColor(true) {
		t.Error("TTY with color-capable TERM should enable color")
	}
}

func TestRedactAttr_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: RedactAttr}))

	logger.Warn("auth", "password", "hunter22", "registry", "https://r.example.com")

	out := buf.String()
	if strings.Contains(out, "hunter22") {
		t.Errorf("password leaked: %s", out)
	}
	if !strings.Contains(out, "****er22") || !strings.Contains(out, "https://r.example.com") {
		t.Errorf("unexpected output: %s", out)
	}
}
