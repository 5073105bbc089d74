package pkg

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/alchemy/rotoslog"
	"github.com/phsym/console-slog"
	"m7s.live/player/pkg/config"
)

var _ slog.Handler = (*MultiLogHandler)(nil)

const TraceLevel = slog.Level(-8)

func ParseLevel(level string) slog.Level {
	var lv slog.LevelVar
	if level == "trace" {
		lv.Set(TraceLevel)
	} else {
		lv.UnmarshalText([]byte(level))
	}
	return lv.Level()
}

// NewLogger builds the console handler and, when conf.Path is set, a rotating
// file handler behind the same level.
func NewLogger(w io.Writer, conf config.Log) (*slog.Logger, error) {
	level := ParseLevel(conf.Level)
	multi := NewMultiLogHandler(level)
	multi.Add(console.NewHandler(w, &console.HandlerOptions{Level: level, TimeFormat: "15:04:05.000"}))
	if conf.Path != "" {
		builder := func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
			return console.NewHandler(w, &console.HandlerOptions{NoColor: true, Level: level, TimeFormat: "2006-01-02 15:04:05.000"})
		}
		file, err := rotoslog.NewHandler(rotoslog.LogHandlerBuilder(builder), rotoslog.LogDir(conf.Path), rotoslog.MaxFileSize(conf.MaxSize), rotoslog.DateTimeLayout(conf.Formatter), rotoslog.MaxRotatedFiles(conf.MaxFiles))
		if err != nil {
			return nil, err
		}
		multi.Add(file)
	}
	return slog.New(multi), nil
}

type MultiLogHandler struct {
	// guards handlers and attrChildren
	mu           sync.RWMutex
	handlers     []slog.Handler
	attrChildren map[*MultiLogHandler][]slog.Attr
	parentLevel  *slog.Level
	level        *slog.Level
}

func NewMultiLogHandler(level slog.Level, handlers ...slog.Handler) *MultiLogHandler {
	m := &MultiLogHandler{handlers: handlers}
	m.SetLevel(level)
	return m
}

func (m *MultiLogHandler) Add(h slog.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
	for child, attrs := range m.attrChildren {
		child.Add(h.WithAttrs(attrs))
	}
}

func (m *MultiLogHandler) SetLevel(level slog.Level) {
	if m.level == nil {
		m.level = &level
	} else {
		*m.level = level
	}
}

// Enabled implements slog.Handler.
func (m *MultiLogHandler) Enabled(_ context.Context, l slog.Level) bool {
	if m.level != nil {
		return l >= *m.level
	}
	return l >= *m.parentLevel
}

// Handle implements slog.Handler.
func (m *MultiLogHandler) Handle(ctx context.Context, rec slog.Record) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.handlers {
		if err := h.Handle(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (m *MultiLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := &MultiLogHandler{
		handlers:    make([]slog.Handler, len(m.handlers)),
		parentLevel: m.parentLevel,
	}
	if m.attrChildren == nil {
		m.attrChildren = make(map[*MultiLogHandler][]slog.Attr)
	}
	m.attrChildren[result] = attrs
	if m.level != nil {
		result.parentLevel = m.level
	}
	for i, h := range m.handlers {
		result.handlers[i] = h.WithAttrs(attrs)
	}
	return result
}

// WithGroup implements slog.Handler.
func (m *MultiLogHandler) WithGroup(name string) slog.Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := &MultiLogHandler{
		handlers:    make([]slog.Handler, len(m.handlers)),
		parentLevel: m.parentLevel,
	}
	if m.level != nil {
		result.parentLevel = m.level
	}
	for i, h := range m.handlers {
		result.handlers[i] = h.WithGroup(name)
	}
	return result
}
