package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TextHandler is a human-oriented slog handler for local development: colored
// level, method/path/status up front, remaining attributes sorted at the end.
type TextHandler struct {
	level slog.Level
	attrs []slog.Attr
	mu    *sync.Mutex
	w     io.Writer
}

type TextOption func(*TextHandler)

func WithLevel(level slog.Level) TextOption {
	return func(h *TextHandler) {
		h.level = level
	}
}

func NewTextHandler(w io.Writer, opts ...TextOption) *TextHandler {
	h := &TextHandler{
		level: slog.LevelInfo,
		mu:    &sync.Mutex{},
		w:     w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *TextHandler) WithGroup(string) slog.Handler {
	return h
}

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgCyan),
	slog.LevelInfo:  color.New(color.FgBlue),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 256))

	fmt.Fprintf(buf, "%s ", record.Time.Format(time.RFC3339))
	if c, ok := levelColors[record.Level]; ok {
		c.Fprintf(buf, "%-5s", record.Level)
	} else {
		fmt.Fprintf(buf, "%-5s", record.Level)
	}

	kv := map[string]slog.Value{}
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value
	}
	record.Attrs(func(attr slog.Attr) bool {
		kv[attr.Key] = attr.Value
		return true
	})

	for _, key := range []string{"method", "path", "status"} {
		if v, ok := kv[key]; ok {
			delete(kv, key)
			fmt.Fprintf(buf, " %v", v)
		}
	}

	color.New(color.FgGreen).Fprintf(buf, " %q", record.Message)
	if e, ok := kv[ErrorAttrKey]; ok {
		delete(kv, ErrorAttrKey)
		color.New(color.FgRed).Fprintf(buf, " %q", fmt.Sprint(e))
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, " %s=%v", k, kv[k])
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}
