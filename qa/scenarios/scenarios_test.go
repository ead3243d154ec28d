package scenarios

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoad_KeepsDefaultFlags(t *testing.T) {
	sc, err := Load("scenario_b.yaml")
	require.NoError(t, err)
	assert.False(t, sc.Scheduling.ReduceMaxPower)
	assert.Equal(t, "greedy", sc.Scheduling.Engine)
	assert.Equal(t, 100.0, sc.Scheduling.Optimizer.StopBelowKWh)
}
