package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidVehicle indicates a vehicle record that cannot be scheduled.
var ErrInvalidVehicle = errors.New("invalid vehicle")

// Vehicle is a charging job: a parking window, state of charge bounds and the
// battery characteristics.
type Vehicle struct {
	ID          string
	Arrival     time.Time
	Departure   time.Time
	SoCArrive   float64 // percent, 0..100
	SoCTarget   float64 // percent, 0..100
	BatteryKWh  float64 // usable capacity in kWh
	MaxChargeKW float64 // max charge rate in kW
}

// Validate checks that the vehicle configuration is sound.
func (v Vehicle) Validate() error {
	switch {
	case v.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidVehicle)
	case v.BatteryKWh <= 0:
		return fmt.Errorf("%w: %s battery capacity must be positive", ErrInvalidVehicle, v.ID)
	case v.MaxChargeKW <= 0:
		return fmt.Errorf("%w: %s charge rate must be positive", ErrInvalidVehicle, v.ID)
	case !v.Departure.After(v.Arrival):
		return fmt.Errorf("%w: %s departure must be after arrival", ErrInvalidVehicle, v.ID)
	case v.SoCArrive < 0 || v.SoCArrive > 100:
		return fmt.Errorf("%w: %s arrival SoC %.1f outside 0..100", ErrInvalidVehicle, v.ID, v.SoCArrive)
	case v.SoCTarget < 0 || v.SoCTarget > 100:
		return fmt.Errorf("%w: %s target SoC %.1f outside 0..100", ErrInvalidVehicle, v.ID, v.SoCTarget)
	}
	return nil
}

// EnergyRequired returns the energy in kWh needed to reach the target SoC.
func (v Vehicle) EnergyRequired() float64 {
	return math.Max(v.BatteryKWh*(v.SoCTarget-v.SoCArrive)/100, 0)
}

// MinDuration returns the charging time in whole minutes at the max rate.
func (v Vehicle) MinDuration() int {
	if v.MaxChargeKW <= 0 {
		return 0
	}
	return int(math.Floor(v.EnergyRequired() / v.MaxChargeKW * 60))
}

// ParkingMinutes returns the length of the parking window in minutes.
func (v Vehicle) ParkingMinutes() int {
	return int(v.Departure.Sub(v.Arrival) / time.Minute)
}

// MaxDeliverable returns the energy in kWh the window can deliver at max rate.
func (v Vehicle) MaxDeliverable() float64 {
	return float64(v.ParkingMinutes()) / 60 * v.MaxChargeKW
}

// TargetCapped describes a target SoC lowered to what the parking window can
// deliver. It is a warning, the vehicle is still scheduled.
type TargetCapped struct {
	VehicleID      string
	RequestedSoC   float64
	CappedSoC      float64
	RequiredKWh    float64
	PossibleKWh    float64
	ParkingMinutes int
}

func (w TargetCapped) String() string {
	return fmt.Sprintf("vehicle %s cannot be charged %.2f kWh (%.0f%%) within %d minutes, at most %.2f kWh (%.0f%%) are possible",
		w.VehicleID, w.RequiredKWh, w.RequestedSoC, w.ParkingMinutes, w.PossibleKWh, w.CappedSoC)
}

// Feasible returns a copy of v whose target SoC is reachable within the
// parking window. The receiver is left untouched; a non-nil warning is
// returned when the target had to be lowered.
func (v Vehicle) Feasible() (Vehicle, *TargetCapped) {
	required := v.EnergyRequired()
	possible := v.MaxDeliverable()
	if required <= possible+1e-9 || v.BatteryKWh <= 0 {
		return v, nil
	}
	capped := v
	capped.SoCTarget = possible*100/v.BatteryKWh + v.SoCArrive
	return capped, &TargetCapped{
		VehicleID:      v.ID,
		RequestedSoC:   v.SoCTarget,
		CappedSoC:      capped.SoCTarget,
		RequiredKWh:    required,
		PossibleKWh:    possible,
		ParkingMinutes: v.ParkingMinutes(),
	}
}

// NewVehicle validates v and clamps its target SoC.
func NewVehicle(v Vehicle) (Vehicle, *TargetCapped, error) {
	if err := v.Validate(); err != nil {
		return Vehicle{}, nil, err
	}
	out, warn := v.Feasible()
	return out, warn, nil
}
