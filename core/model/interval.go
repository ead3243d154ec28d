package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInterval is returned when interval data is malformed or missing.
var ErrInvalidInterval = errors.New("invalid interval")

// TimeInterval is a minute aligned pair of timestamps with End >= Start.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// NewTimeInterval validates and returns an interval.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if end.Before(start) {
		return TimeInterval{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidInterval, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Minutes returns the number of whole minutes between Start and End.
func (i TimeInterval) Minutes() int {
	if i.End.Before(i.Start) {
		return 0
	}
	return int(i.End.Sub(i.Start) / time.Minute)
}

// Contains reports whether Start <= t <= End.
func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

type intervalJSON struct {
	Start *float64 `json:"time_start"`
	End   *float64 `json:"time_end"`
}

// MarshalJSON encodes the interval as unix seconds.
func (i TimeInterval) MarshalJSON() ([]byte, error) {
	s := float64(i.Start.Unix())
	e := float64(i.End.Unix())
	return json.Marshal(intervalJSON{Start: &s, End: &e})
}

// UnmarshalJSON decodes unix seconds and rejects missing or inverted bounds.
func (i *TimeInterval) UnmarshalJSON(b []byte) error {
	var raw intervalJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	if raw.Start == nil || raw.End == nil {
		return fmt.Errorf("%w: time_start and time_end are required", ErrInvalidInterval)
	}
	iv, err := NewTimeInterval(fromUnix(*raw.Start), fromUnix(*raw.End))
	if err != nil {
		return err
	}
	*i = iv
	return nil
}

func fromUnix(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9))
}
