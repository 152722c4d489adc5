// package shared defines shared helpers
package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultDomainSuffix is appended to bare instance names (e.g. "acme" -> "acme.kaiten.ru").
const DefaultDomainSuffix = ".kaiten.ru"

// LogSink is the write-only side channel the migration engine reports through.
//
// [log.Logger] satisfies it, so the CLI passes its logger straight in.
type LogSink interface {
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

var _ LogSink = (*log.Logger)(nil)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a logger that appends to the file at path, creating parent directories as needed.
//
// Used when the terminal is owned by the TUI.
func NewFileLogger(path string) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return log.NewWithOptions(f, log.Options{ReportTimestamp: true, Formatter: log.LogfmtFormatter}), nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// WithSinkFields adds key-value pairs to every entry written through l.
//
// A [log.Logger] gets a real child logger; any other sink is wrapped.
func WithSinkFields(l LogSink, kv ...any) LogSink {
	if l == nil {
		return nil
	}
	if lg, ok := l.(*log.Logger); ok {
		return WithLogger(lg, kv...)
	}
	return fieldSink{next: l, kv: kv}
}

type fieldSink struct {
	next LogSink
	kv   []any
}

func (f fieldSink) with(keyvals []any) []any {
	out := make([]any, 0, len(f.kv)+len(keyvals))
	return append(append(out, f.kv...), keyvals...)
}

func (f fieldSink) Info(msg any, keyvals ...any)  { f.next.Info(msg, f.with(keyvals)...) }
func (f fieldSink) Warn(msg any, keyvals ...any)  { f.next.Warn(msg, f.with(keyvals)...) }
func (f fieldSink) Error(msg any, keyvals ...any) { f.next.Error(msg, f.with(keyvals)...) }

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ParseLogLevel converts a config level name into a [log.Level], defaulting to info.
func ParseLogLevel(name string) log.Level {
	if name == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// MarshalJSON marshals v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// NormalizeDomain trims scheme and trailing slashes from an instance domain and
// appends [DefaultDomainSuffix] when the value is a bare subdomain.
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimRight(domain, "/")
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, ".") && !strings.Contains(domain, ":") {
		domain += DefaultDomainSuffix
	}
	return domain
}
