package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/libjpeg.go/pkg/logging"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, false, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, true, slog.LevelInfo)

	log.Info("event", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "event", record["msg"])
	assert.Equal(t, "value", record["key"])
}

func TestAppendCtxCarriesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, true, slog.LevelInfo)

	ctx := logging.AppendCtx(context.Background(), slog.String("run", "abc123"))
	ctx = logging.AppendCtx(ctx, slog.String("tool", "jpegctl"))

	log.InfoContext(ctx, "event")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc123", record["run"])
	assert.Equal(t, "jpegctl", record["tool"])
}
