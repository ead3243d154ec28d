package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfile_NoReductionWhenWindowTight(t *testing.T) {
	v := vehicle("a", at(8, 0), at(9, 0), 50, 80, 40, 22)
	p, clamped, capped := BuildProfile(v, DefaultFlags(), nop)

	assert.Nil(t, capped)
	assert.Equal(t, v, clamped)
	assert.Equal(t, 32, p.Minutes())
	assert.Equal(t, 1.0, p.Divisor)
	assert.True(t, p.Flat)
	for _, s := range p.Samples {
		assert.Equal(t, 22000.0, s)
	}
}

func TestBuildProfile_Reductions(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		reduce  bool
		minutes int
		divisor float64
	}{
		{"quarter", 22, true, 84, 4},
		{"quarter and half stack", 100, true, 32, 8},
		{"disabled", 22, false, 21, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := vehicle("v", at(8, 0), at(16, 0), 50, 70, 40, tt.rate)
			p, _, _ := BuildProfile(v, flags(tt.reduce, false), nop)
			assert.Equal(t, tt.minutes, p.Minutes())
			assert.Equal(t, tt.divisor, p.Divisor)
			assert.InDelta(t, tt.rate/tt.divisor*1000, p.Samples[0], 1e-9)
		})
	}
}

func TestBuildProfile_HalfRate(t *testing.T) {
	v := vehicle("v", at(8, 0), at(12, 0), 20, 80, 40, 16)
	p, _, _ := BuildProfile(v, DefaultFlags(), nop)
	// 24 kWh at 16 kW is 90 minutes, halved to 8 kW over 180 minutes.
	assert.Equal(t, 180, p.Minutes())
	assert.Equal(t, 8000.0, p.Samples[0])
}

func TestBuildProfile_FlattenTail(t *testing.T) {
	f := DefaultFlags()
	f.FlattenTail = true
	v := vehicle("v", at(6, 0), at(16, 0), 10, 90, 60, 11)

	p, _, _ := BuildProfile(v, f, nop)
	require.Equal(t, 273, p.Minutes())
	assert.False(t, p.Flat)
	for i := 0; i < 222; i++ {
		assert.Equal(t, 11000.0, p.Samples[i], "head sample %d", i)
	}
	assert.InDelta(t, 11000-5500*51.0/52.0, p.Samples[272], 1e-6)
	for i := 1; i < p.Minutes(); i++ {
		assert.LessOrEqual(t, p.Samples[i], p.Samples[i-1])
	}
}

func TestBuildProfile_FlattenFallsBackWhenRampDoesNotFit(t *testing.T) {
	f := DefaultFlags()
	f.FlattenTail = true
	v := vehicle("v", at(6, 0), at(10, 30), 10, 90, 60, 11)

	p, _, capped := BuildProfile(v, f, nop)
	assert.Nil(t, capped)
	assert.True(t, p.Flat)
	assert.Equal(t, 261, p.Minutes())
}

func TestBuildProfile_ClampsInfeasibleTarget(t *testing.T) {
	v := vehicle("v", at(8, 0), at(9, 0), 10, 90, 60, 11)
	p, clamped, capped := BuildProfile(v, flags(false, false), nop)

	require.NotNil(t, capped)
	assert.Equal(t, 90.0, v.SoCTarget, "input must not be modified")
	assert.InDelta(t, 10+11.0/60*100, clamped.SoCTarget, 1e-9)
	assert.InDelta(t, 60, p.Minutes(), 1)
	assert.LessOrEqual(t, p.Minutes(), clamped.ParkingMinutes())
}

func TestBuildProfile_ZeroRequirement(t *testing.T) {
	v := vehicle("v", at(8, 0), at(9, 0), 80, 80, 60, 11)
	p, _, _ := BuildProfile(v, DefaultFlags(), nop)
	assert.Equal(t, 0, p.Minutes())
	assert.Equal(t, 0.0, p.Energy())
}
