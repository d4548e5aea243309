package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Entry is one captured log record with its attributes flattened.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record in memory and echoes
// it to the test log.
type LogCapture struct {
	t     *testing.T
	attrs []slog.Attr
	buf   *entries
}

type entries struct {
	mu   sync.Mutex
	list []Entry
}

// NewTestLogger returns a logger writing into a fresh LogCapture.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	c := &LogCapture{t: t, buf: &entries{}}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	e := Entry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any, len(c.attrs)+r.NumAttrs())}
	for _, a := range c.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	c.buf.mu.Lock()
	c.buf.list = append(c.buf.list, e)
	c.buf.mu.Unlock()
	c.t.Logf("[%s] %s %v", e.Level, e.Message, e.Attrs)
	return nil
}

// WithAttrs shares the capture buffer with the parent.
func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{t: c.t, attrs: append(append([]slog.Attr{}, c.attrs...), attrs...), buf: c.buf}
}

// WithGroup flattens groups.
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Entries returns a snapshot of the captured records.
func (c *LogCapture) Entries() []Entry {
	c.buf.mu.Lock()
	defer c.buf.mu.Unlock()
	return append([]Entry(nil), c.buf.list...)
}

func (c *LogCapture) find(match func(Entry) bool) bool {
	for _, e := range c.Entries() {
		if match(e) {
			return true
		}
	}
	return false
}

// AssertLogContains fails unless a record at level has a message containing
// message.
func AssertLogContains(t *testing.T, c *LogCapture, level slog.Level, message string) {
	t.Helper()
	found := c.find(func(e Entry) bool {
		return e.Level == level && strings.Contains(e.Message, message)
	})
	assert.Truef(t, found, "no %s log containing %q in %v", level, message, c.Entries())
}

// AssertLogAttr fails unless some record carries key=value.
func AssertLogAttr(t *testing.T, c *LogCapture, key string, value any) {
	t.Helper()
	found := c.find(func(e Entry) bool {
		v, ok := e.Attrs[key]
		return ok && assert.ObjectsAreEqual(value, v)
	})
	assert.Truef(t, found, "no log with %s=%v in %v", key, value, c.Entries())
}

// AssertNoErrors fails on any error-level record.
func AssertNoErrors(t *testing.T, c *LogCapture) {
	t.Helper()
	for _, e := range c.Entries() {
		assert.NotEqualf(t, slog.LevelError, e.Level, "unexpected error log %q %v", e.Message, e.Attrs)
	}
}
