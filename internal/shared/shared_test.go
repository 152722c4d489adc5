package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeDomain(t *testing.T) {
	tc := []struct {
		name   string
		domain string
		want   string
	}{
		{name: "bare subdomain", domain: "acme", want: "acme.kaiten.ru"},
		{name: "full domain", domain: "acme.kaiten.ru", want: "acme.kaiten.ru"},
		{name: "scheme and slash", domain: "https://acme.example.org/", want: "acme.example.org"},
		{name: "host with port", domain: "localhost:8080", want: "localhost:8080"},
		{name: "whitespace", domain: "  acme  ", want: "acme.kaiten.ru"},
		{name: "empty", domain: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDomain(tt.domain); got != tt.want {
				t.Errorf("NormalizeDomain(%q) = %v, want %v", tt.domain, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		WithLogger(logger, "card", 7).Warn("field dropped")

		if !strings.Contains(buf.String(), "field dropped") || !strings.Contains(buf.String(), "card=7") {
			t.Errorf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "cardx.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("hello")
	})

	t.Run("WithSinkFields", func(t *testing.T) {
		var buf bytes.Buffer
		WithSinkFields(NewLogger(&buf), "card", 9).Info("created")
		if !strings.Contains(buf.String(), "card=9") {
			t.Errorf("expected child logger fields, got %s", buf.String())
		}

		rec := &kvSink{}
		WithSinkFields(rec, "card", 3).Warn("skipped", "field", "x")
		if len(rec.kv) != 4 || rec.kv[0] != "card" || rec.kv[2] != "field" {
			t.Errorf("expected prefixed keyvals, got %v", rec.kv)
		}

		if WithSinkFields(nil, "card", 1) != nil {
			t.Error("expected nil sink to stay nil")
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("debug"); got != log.DebugLevel {
			t.Errorf("expected debug, got %v", got)
		}
		if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("expected info fallback, got %v", got)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

type kvSink struct{ kv []any }

func (k *kvSink) Info(msg any, kv ...any)  { k.kv = kv }
func (k *kvSink) Warn(msg any, kv ...any)  { k.kv = kv }
func (k *kvSink) Error(msg any, kv ...any) { k.kv = kv }
