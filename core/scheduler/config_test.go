package scheduler

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFlags(t *testing.T) {
	f := DefaultFlags()
	assert.True(t, f.ReduceMaxPower)
	assert.False(t, f.FlattenTail)
	assert.True(t, f.OverchargeEnabled)
	assert.False(t, f.AllowGridSlack)
	assert.Equal(t, EngineGreedy, f.Engine)
	assert.Equal(t, 100.0, f.Optimizer.StopBelowKWh)
	require.NoError(t, f.Validate())
}

func TestDecodeConfig(t *testing.T) {
	data := "flatten_tail: true\novercharge_enabled: false\nengine: global\noptimizer:\n  population: 8\n"
	cfg, err := DecodeConfig(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	assert.True(t, cfg.FlattenTail)
	assert.True(t, cfg.ReduceMaxPower, "unset keys keep their defaults")
	assert.False(t, cfg.OverchargeEnabled)
	assert.Equal(t, EngineGlobal, cfg.Engine)
	assert.Equal(t, 8, cfg.Optimizer.Population)
	assert.Equal(t, 4000, cfg.Optimizer.MaxEvaluations)

	_, err = DecodeConfig(bytes.NewBufferString(`{"engine":"quantum"}`), "json")
	assert.Error(t, err)
	_, err = DecodeConfig(bytes.NewBufferString(""), "toml")
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flags.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"allow_grid_slack":true,"reduce_max_power":false}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.AllowGridSlack)
	assert.False(t, cfg.ReduceMaxPower)

	_, err = LoadConfig(path + ".txt")
	assert.Error(t, err)
}
