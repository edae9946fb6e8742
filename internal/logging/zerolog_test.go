package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_KeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	log.Info(context.Background(), "refresh scheduled", "in", "5s", "attempt", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "refresh scheduled", rec["message"])
	require.Equal(t, "5s", rec["in"])
	require.Equal(t, float64(2), rec["attempt"])
}

func TestZerologLogger_WithAddsContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf)).With("component", "session")

	log.Warn(context.Background(), "background refresh failed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "session", rec["component"])
	require.Equal(t, "warn", rec["level"])
}

func TestZerologLogger_DanglingKeyKept(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	log.Error(context.Background(), "oops", "cause")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	_, present := rec["cause"]
	require.True(t, present)
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	log := Nop().With("a", 1)
	log.Debug(context.Background(), "x")
	log.Info(context.Background(), "x")
	log.Warn(context.Background(), "x")
	log.Error(context.Background(), "x", "k", "v")
}
