package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomatoPi/5FX-Syncer/internal/harness"
)

const failingScenario = `name: wrong_tick
description: "Expects tick 1 somewhere it never lands"
tempo: 120bpm
sample_rate: 48kHz
block_size: 100
steps:
  - blocks: 1
assertions:
  - type: tick_at
    tick: 1
    frame: 99
`

func TestSimulatePasses(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, hardSyncScenario)
	require.NoError(t, err)
	assert.Contains(t, out, "0001 block 0 [0, 64)")
	assert.Contains(t, out, "sync tick 1 @ 128 from anchor")
	assert.Contains(t, out, "PASS hard_sync_recovery")
}

func TestSimulateQuiet(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, hardSyncScenario, "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, out, "block")
	assert.Contains(t, out, "PASS hard_sync_recovery")
}

func TestSimulateJSON(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, hardSyncScenario)
	require.NoError(t, err)

	var result harness.Result
	decodeData(t, out, &result)
	assert.True(t, result.Pass)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.Trace)
}

func TestSimulateFailingScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong_tick.yaml")
	require.NoError(t, os.WriteFile(path, []byte(failingScenario), 0o644))

	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL wrong_tick")
}

func TestSimulateMissingScenario(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSimulateRequiresScenario(t *testing.T) {
	cmd := NewSimulateCommand(&RootOptions{Format: "text"})
	_, err := execute(t, cmd)
	require.Error(t, err)
}
