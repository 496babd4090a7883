package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// SourceKey is rendered by the console handler as a bracketed tag in front of
// the message, so per-actuator lines line up when a frame logs all three.
const SourceKey = "source"

type Config struct {
	Level  string
	Format string // "text", "json", "console"
	Output io.Writer
	File   string
}

var (
	once sync.Once
	lg   *slog.Logger
)

// Init installs the process logger once. When cfg.File is set the log is
// written to both Output and the file; the returned closer releases the file.
func Init(cfg Config) (io.Closer, error) {
	var (
		closer io.Closer = nopCloser{}
		err    error
	)
	once.Do(func() {
		var out io.Writer
		out, closer, err = openOutput(cfg)
		if err != nil {
			return
		}
		cfg.Output = out
		lg = New(cfg)
		slog.SetDefault(lg)
	})
	return closer, err
}

// New builds a logger without touching the process default.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	level := parseLevel(cfg.Level)
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(cfg.Output, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{Level: level})
	default:
		handler = &consoleHandler{mu: &sync.Mutex{}, w: cfg.Output, level: level}
	}
	return slog.New(handler)
}

func L() *slog.Logger {
	if lg == nil {
		_, _ = Init(Config{Level: "debug", Format: "console"})
	}
	return lg
}

func openOutput(cfg Config) (io.Writer, io.Closer, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.File == "" {
		return out, nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(out, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consoleHandler outputs human-friendly log lines:
//
//	12:00:00 DEBUG [right_hand] grab  target=crate-1 kind=direct
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	group  string
	source string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format(time.TimeOnly)
	lvl := levelTag(r.Level)

	source := h.source
	var b strings.Builder
	for _, a := range h.attrs {
		b.WriteString(formatAttr(h.group, a))
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == SourceKey && h.group == "" {
			source = a.Value.String()
			return true
		}
		b.WriteString(formatAttr(h.group, a))
		return true
	})

	line := fmt.Sprintf("%s %s ", ts, lvl)
	if source != "" {
		line += "[" + source + "] "
	}
	line += r.Message + b.String() + "\n"

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}
	_, err := io.WriteString(h.w, line)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, a := range attrs {
		if a.Key == SourceKey && h.group == "" {
			next.source = a.Value.String()
			continue
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	next := h.clone()
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return next
}

func (h *consoleHandler) clone() *consoleHandler {
	return &consoleHandler{
		mu:     h.mu,
		w:      h.w,
		level:  h.level,
		attrs:  append([]slog.Attr{}, h.attrs...),
		group:  h.group,
		source: h.source,
	}
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN "
	case l >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func formatAttr(group string, a slog.Attr) string {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	return fmt.Sprintf("  %s=%v", key, a.Value)
}
