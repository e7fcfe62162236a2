package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log := New()
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestNewWithOptions_JSONLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithOptions(Options{Level: "WARN", Format: "json", Writer: buf})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("file", "extrato.xlsx").Msg("row rejected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "extrato.xlsx", entry["file"])
	assert.Equal(t, "row rejected", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewWithOptions_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithOptions(Options{Writer: buf})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewWithOptions_Invalid(t *testing.T) {
	_, err := NewWithOptions(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = NewWithOptions(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	l := FromContext(ctx)
	l.Info().Msg("test")
	assert.NotZero(t, buf.Len())

	fallback := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, fallback.GetLevel())
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{"template": "banco", "rows": 3})
	log.Info().Msg("done")

	assert.Contains(t, buf.String(), `"template":"banco"`)
	assert.Contains(t, buf.String(), `"rows":3`)
}
