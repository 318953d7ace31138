package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("file_hash", "abc123").Msg("ingested")

	output := buf.String()
	if !strings.Contains(output, "ingested") {
		t.Errorf("Expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "abc123") {
		t.Errorf("Expected output to contain field value, got: %s", output)
	}
}

func TestFromContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	testLog := NewWithWriter(buf)
	ctx := WithContext(context.Background(), testLog)

	ctxLog := FromContext(ctx)
	ctxLog.Info().Msg("from context")

	if !strings.Contains(buf.String(), "from context") {
		t.Errorf("Expected context logger to be used, got: %s", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	// Must not panic and must return a usable logger.
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}
