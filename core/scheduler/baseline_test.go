package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsched/core/model"
)

func TestBaseline_StartsOnArrival(t *testing.T) {
	vs := []model.Vehicle{
		vehicle("a", at(7, 0), at(18, 0), 50, 75, 44, 11),
		vehicle("b", at(9, 30), at(18, 0), 80, 80, 44, 11),
	}
	prod := solar(at(12, 0), at(14, 0), 30000)

	res, err := NewBaseline(nop, nil).Schedule(testDay, vs, prod)
	require.NoError(t, err)
	require.Len(t, res.Consumers, 1)
	assert.Equal(t, at(7, 0), res.Consumers[0].Power.Interval.Start)
	assert.Equal(t, 60, res.Consumers[0].Power.Len())
	assert.Equal(t, 0.0, res.Overpower.Energy())

	base := Summarize(res, 30000)
	assert.InDelta(t, 11000, base.GridWh, 1e-9)

	greedy, err := NewRescheduler(flags(false, false), nop, nil, nil).Schedule(testDay, vs, prod)
	require.NoError(t, err)
	assert.Less(t, Summarize(greedy, 30000).GridWh, base.GridWh)
}
