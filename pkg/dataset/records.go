// Package dataset reads, writes and generates vehicle records in the
// flat JSON layout used by charging test data.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kilianp07/solarsched/core/model"
)

// ID accepts both numeric and string identifiers.
type ID string

// UnmarshalJSON decodes a JSON number or string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id_user: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes integer ids as numbers and anything else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Record is one vehicle of a test data file.
type Record struct {
	ID            ID      `json:"id_user"`
	TimeArrive    string  `json:"time_arrive"`
	TimeLeave     string  `json:"time_leave"`
	PercentArrive float64 `json:"percent_arrive"`
	PercentLeave  float64 `json:"percent_leave"`
	BatterySize   float64 `json:"battery_size"`
	ChargeMax     float64 `json:"charge_max"`
}

const clock = "15:04"

// Vehicle binds the record's wall clock times to day.
func (r Record) Vehicle(day model.Day) (model.Vehicle, error) {
	arrive, err := clockOn(day, r.TimeArrive)
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("%w: %s time_arrive: %v", model.ErrInvalidVehicle, r.ID, err)
	}
	leave, err := clockOn(day, r.TimeLeave)
	if err != nil {
		return model.Vehicle{}, fmt.Errorf("%w: %s time_leave: %v", model.ErrInvalidVehicle, r.ID, err)
	}
	v := model.Vehicle{
		ID:          string(r.ID),
		Arrival:     arrive,
		Departure:   leave,
		SoCArrive:   r.PercentArrive,
		SoCTarget:   r.PercentLeave,
		BatteryKWh:  r.BatterySize,
		MaxChargeKW: r.ChargeMax,
	}
	if err := v.Validate(); err != nil {
		return model.Vehicle{}, err
	}
	return v, nil
}

// clockOn resolves a wall clock time on day, so DST changes do not shift it.
func clockOn(day model.Day, s string) (time.Time, error) {
	t, err := time.Parse(clock, s)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := day.Start.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, day.Start.Location()), nil
}

// FromVehicle converts a vehicle back to its record form.
func FromVehicle(v model.Vehicle) Record {
	return Record{
		ID:            ID(v.ID),
		TimeArrive:    v.Arrival.Format(clock),
		TimeLeave:     v.Departure.Format(clock),
		PercentArrive: v.SoCArrive,
		PercentLeave:  v.SoCTarget,
		BatterySize:   v.BatteryKWh,
		ChargeMax:     v.MaxChargeKW,
	}
}

// ReadRecords decodes a JSON array of records.
func ReadRecords(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode vehicles: %w", err)
	}
	return recs, nil
}

// LoadVehicles decodes records from r and binds them to day. Duplicate ids
// are rejected.
func LoadVehicles(r io.Reader, day model.Day) ([]model.Vehicle, error) {
	recs, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	seen := make(map[ID]struct{}, len(recs))
	out := make([]model.Vehicle, 0, len(recs))
	for _, rec := range recs {
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", model.ErrInvalidVehicle, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		v, err := rec.Vehicle(day)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadVehiclesFile reads vehicles from a JSON file.
func LoadVehiclesFile(path string, day model.Day) ([]model.Vehicle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadVehicles(f, day)
}

// WriteRecords encodes records as an indented JSON array.
func WriteRecords(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(recs)
}

// WriteVehicles encodes vehicles in record form.
func WriteVehicles(w io.Writer, vehicles []model.Vehicle) error {
	recs := make([]Record, len(vehicles))
	for i, v := range vehicles {
		recs[i] = FromVehicle(v)
	}
	return WriteRecords(w, recs)
}
