package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := To(&buf)
	logger.Info().Str("run_id", "r1").Int("added", 3).Msg("ingest finished")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "ingest finished", line["message"])
	require.Equal(t, "r1", line["run_id"])
	require.EqualValues(t, 3, line["added"])
}

func TestNewHonoursLevel(t *testing.T) {
	logger := New("warn", "json")
	require.NotNil(t, logger)
	require.Equal(t, "warn", logger.Level.String())
}
