// Package model holds the minute-resolution power and energy data model used
// by the scheduler: time intervals, power curves, vehicles, consumers and the
// per-minute day timelines.
//
// Units follow the charging domain: charge rates in kW, battery capacity and
// energy requirements in kWh, power curve samples in W and curve energy in Wh.
package model
