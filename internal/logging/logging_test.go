package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	require.NoError(t, Setup("warn", "json", &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("ticker", "TPG").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "TPG", line["ticker"])
	assert.Equal(t, "shown", line["message"])
}

func TestSetup_Invalid(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	assert.Error(t, Setup("loud", "json", nil))
	assert.Error(t, Setup("info", "xml", nil))
}
