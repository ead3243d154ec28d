package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarsched/core/model"
)

var day = model.NewDay(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

func at(h, m int) time.Time {
	return day.Start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func sample() Forecast {
	return New([]Datapoint{
		{Time: at(12, 15), Value: 3000},
		{Time: at(12, 0), Value: 1500},
		{Time: at(-1, 0), Value: 9999},
		{Time: at(12, 30), Value: 0},
		{Time: at(25, 0), Value: 9999},
	})
}

func TestNewSortsPoints(t *testing.T) {
	f := sample()
	for i := 1; i < len(f.Points); i++ {
		assert.True(t, f.Points[i-1].Time.Before(f.Points[i].Time))
	}
}

func TestScale(t *testing.T) {
	f := New([]Datapoint{{Time: at(12, 0), Value: 4196e6}})
	scaled, err := f.Scale(300000, 4196e6)
	require.NoError(t, err)
	assert.InDelta(t, 300000, scaled.Points[0].Value, 1e-6)
	assert.Equal(t, 4196e6, f.Points[0].Value, "input must not be modified")

	_, err = f.Scale(0, 1)
	assert.ErrorIs(t, err, ErrInvalidScale)
	_, err = f.Scale(1, -1)
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestValueAt(t *testing.T) {
	f := sample().Daily(day)
	tests := []struct {
		name   string
		t      time.Time
		smooth bool
		want   float64
	}{
		{"before first", at(11, 59), true, 0},
		{"on point", at(12, 0), true, 1500},
		{"interpolated", at(12, 5), true, 2000},
		{"step", at(12, 5), false, 1500},
		{"falling", at(12, 24), true, 1200},
		{"last point", at(12, 30), true, 0},
		{"after last", at(13, 0), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, f.ValueAt(tt.t, tt.smooth), 1e-9)
		})
	}
}

func TestDailyAndPeak(t *testing.T) {
	f := sample()
	assert.Equal(t, 9999.0, f.Peak())
	daily := f.Daily(day)
	assert.Len(t, daily.Points, 3)
	assert.Equal(t, 3000.0, daily.Peak())
	assert.Equal(t, 0.0, Forecast{}.Peak())
}

func TestProduction(t *testing.T) {
	prod := sample().Production(day, false)
	require.Len(t, prod, model.MinutesPerDay)
	assert.Equal(t, 0.0, prod[day.Index(at(11, 59))])
	assert.Equal(t, 1500.0, prod[day.Index(at(12, 14))])
	assert.Equal(t, 3000.0, prod[day.Index(at(12, 29))])
	assert.Equal(t, 0.0, prod[day.Index(at(12, 30))])
	assert.InDelta(t, (15*1500+15*3000)/60.0, prod.Energy(), 1e-9)

	assert.Equal(t, 0.0, Forecast{}.Production(day, true).Energy())
}
