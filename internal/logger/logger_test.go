package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestParseLevel 测试日志级别解析
func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"大写", "DEBUG", slog.LevelDebug},
		{"未知级别默认info", "unknown", slog.LevelInfo},
		{"空字符串默认info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLevel(tt.input)
			if got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, 期望 %v", tt.input, got, tt.expected)
			}
		})
	}
}

// TestLevelTag 测试日志级别标签
func TestLevelTag(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{slog.LevelError, "ERROR"},
		{slog.LevelWarn, "WARN "},
		{slog.LevelInfo, "INFO "},
		{slog.LevelDebug, "DEBUG"},
	}

	for _, tt := range tests {
		if got := levelTag(tt.level); got != tt.expected {
			t.Errorf("levelTag(%v) = %q, 期望 %q", tt.level, got, tt.expected)
		}
	}
}

func TestFormatAttr(t *testing.T) {
	if got := formatAttr("", slog.String("key", "value")); got != "  key=value" {
		t.Errorf("formatAttr without group = %q", got)
	}
	if got := formatAttr("spawn", slog.Int("ticks", 3)); got != "  spawn.ticks=3" {
		t.Errorf("formatAttr with group = %q", got)
	}
}

func TestConsoleHandlerEnabled(t *testing.T) {
	h := &consoleHandler{level: slog.LevelInfo}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be enabled")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be filtered")
	}
}

func TestConsoleHandlerHandle(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	record := slog.NewRecord(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "grab", 0)
	record.AddAttrs(slog.String("target", "crate-1"))

	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"12:00:00", "INFO", "grab", "target=crate-1"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %q", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("output should end with newline: %q", output)
	}
}

func TestConsoleHandlerSourceTag(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(&consoleHandler{w: &buf, level: slog.LevelDebug})

	log.With(SourceKey, "right_hand").Debug("release", "target", "crate-1")
	log.Info("spawn failed", SourceKey, "cursor")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "DEBUG [right_hand] release  target=crate-1") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if strings.Contains(lines[0], "source=") {
		t.Errorf("source should not be rendered as attr: %q", lines[0])
	}
	if !strings.Contains(lines[1], "[cursor] spawn failed") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

// TestConsoleHandlerWithAttrs 测试 WithAttrs 创建新 handler
func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "arbiter")})

	// 原始 handler 不应该受影响
	if len(h.attrs) != 0 {
		t.Error("原始 handler 的 attrs 不应该被修改")
	}

	record := slog.NewRecord(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "test", 0)
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() 返回错误: %v", err)
	}
	if !strings.Contains(buf.String(), "component=arbiter") {
		t.Errorf("输出应包含预设属性, 实际: %q", buf.String())
	}
}

func TestConsoleHandlerWithNestedGroup(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{w: &buf, level: slog.LevelDebug}

	h2 := h.WithGroup("spawn").WithGroup("placement")

	record := slog.NewRecord(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "test", 0)
	record.AddAttrs(slog.String("x", "1.5"))
	if err := h2.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if !strings.Contains(buf.String(), "spawn.placement.x=1.5") {
		t.Errorf("missing nested group prefix: %q", buf.String())
	}
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"json", "text", "console", ""} {
		var buf bytes.Buffer
		log := New(Config{Level: "debug", Format: format, Output: &buf})
		log.Info("tick", "n", 1)
		if !strings.Contains(buf.String(), "tick") {
			t.Errorf("format %q: output %q missing message", format, buf.String())
		}
	}
}

func TestOpenOutputMirrorsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grasp.log")
	var buf bytes.Buffer

	out, closer, err := openOutput(Config{Output: &buf, File: path})
	if err != nil {
		t.Fatalf("openOutput() error: %v", err)
	}
	if _, err := out.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(data) != "hello\n" || buf.String() != "hello\n" {
		t.Errorf("file=%q buf=%q", data, buf.String())
	}
}

func TestOpenOutputBadPath(t *testing.T) {
	_, _, err := openOutput(Config{File: filepath.Join(t.TempDir(), "missing", "grasp.log")})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
