package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/model"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("TELEGRAM_ENABLED", "false")
	t.Setenv("LOG_TRACING_ENABLED", "false")
}

func TestRootCmd_IndicesJSON(t *testing.T) {
	isolateEnv(t)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error", "indices", "--json"})
	require.NoError(t, cmd.Execute())

	var list []constituents.Index
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	assert.Len(t, list, 5)
}

func TestRootCmd_RejectsBadDate(t *testing.T) {
	isolateEnv(t)
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error", "performance", "23/09/2024"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestPrintCrosses(t *testing.T) {
	d := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printCrosses(&out, &analysis.CrossReport{
		Index: "sp500", AsOf: d, LookbackDays: 180, WindowDays: 7,
		Alerts: []analysis.CrossAlert{{
			CrossEvent: model.CrossEvent{Ticker: "GOLD", Date: d, Direction: model.Golden},
			LastPrice:  model.Float(30),
		}},
		Skipped: []string{"FAIL"},
		Dataset: model.Dataset{Synthetic: true, Warning: "sample"},
	})
	text := out.String()
	assert.Contains(t, text, "2025-02-14  GOLD")
	assert.Contains(t, text, "30.00")
	assert.Contains(t, text, "1 crosses in sp500 within 7 days of 2025-02-14 (skipped: FAIL)")
	assert.True(t, strings.HasSuffix(text, "WARNING: sample\n"))
}

func TestPrintJSONIsIndented(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJSON(&out, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}
