package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "production")

	l.With("service", "api").WithFields(map[string]interface{}{"review_id": "r-1"}).Info("Review created successfully")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "r-1", entry["review_id"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Review created successfully", entry["message"])
}

func TestLogger_ErrorCarriesCause(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "production")

	l.Errorf(errors.New("connection refused"), "Failed to refresh rating of %s", "item-1")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "Failed to refresh rating of item-1", entry["message"])
}

func TestLogger_ProductionSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "production")

	l.Debug("cache miss")

	assert.Zero(t, buf.Len())
}

func TestLogger_TestEnvIsSilent(t *testing.T) {
	l := New("test")

	assert.Equal(t, zerolog.Disabled, l.Zerolog().GetLevel())
}
