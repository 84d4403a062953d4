// Package physics implements the baseline energy consumption model: an
// additive, explainable breakdown of watt-hours for a segment or whole route
// derived from vehicle specs, elevation profile and ambient conditions.
//
// The factors are physical approximations calibrated against real-world EV
// telemetry; they are fixed here and must not be tuned per deployment.
package physics

import "github.com/anoop-jadhav-ui/RangeIQ/core/model"

const (
	gravity = 9.81 // m/s^2

	hvacCoolingKW = 2.5
	hvacHeatingKW = 4.0
	auxiliaryKW   = 0.15 // average always-on draw: lights, computer, pumps

	// Model-only adjustment references.
	referencePayloadKg   = 150
	referenceTirePSI     = 35
	payloadPctPer10Kg    = 0.005
	tirePctPerPSI        = 0.01
	headwindThresholdKmh = 10
	headwindCoefficient  = 0.08
	headwindReferenceKmh = 30
)

// regenEfficiency maps regeneration level 0-3 to the fraction of descending
// potential energy recovered into the battery.
var regenEfficiency = [4]float64{0, 0.10, 0.18, 0.25}

// RegenEfficiency returns the recovery fraction for a regen level, clamping
// out-of-range levels to the valid window.
func RegenEfficiency(level int) float64 {
	if level < 0 {
		level = 0
	}
	if level > 3 {
		level = 3
	}
	return regenEfficiency[level]
}

// TemperatureEfficiency returns the battery/drivetrain efficiency multiplier
// for an ambient temperature. 15-30 C is the optimal band.
func TemperatureEfficiency(tempC float64) float64 {
	switch {
	case tempC < 0:
		return 0.70
	case tempC < 15:
		return 0.85
	case tempC <= 30:
		return 1.00
	case tempC <= 40:
		return 0.92
	default:
		return 0.85
	}
}

// SpeedFactor returns the consumption multiplier for an average speed. Low
// speeds pay a stop-start penalty, high speeds pay aerodynamic drag.
func SpeedFactor(kmh float64) float64 {
	switch {
	case kmh <= 30:
		return 1.15
	case kmh <= 70:
		return 1.00
	case kmh <= 90:
		return 1.12
	case kmh <= 110:
		return 1.28
	case kmh <= 130:
		return 1.45
	default:
		return 1.60
	}
}

// TrafficFactor returns the consumption multiplier for a traffic density
// class.
func TrafficFactor(d model.TrafficDensity) float64 {
	switch d {
	case model.TrafficLight:
		return 1.05
	case model.TrafficModerate:
		return 1.12
	case model.TrafficHeavy:
		return 1.25
	case model.TrafficCongested:
		return 1.40
	default:
		return 1.00
	}
}

// HVACPowerKW returns the climate system draw for a mode when HVAC is on.
func HVACPowerKW(mode model.HVACMode) float64 {
	switch mode {
	case model.HVACHeating:
		return hvacHeatingKW
	case model.HVACCooling:
		return hvacCoolingKW
	default:
		return 0
	}
}

// ClimbingWh returns the potential energy cost of gaining elevation, in Wh.
// mass is the total vehicle mass including payload.
func ClimbingWh(massKg, elevationGainM float64) float64 {
	if elevationGainM <= 0 {
		return 0
	}
	return massKg * gravity * elevationGainM / 3600
}

// RegenRecoveryWh returns the energy recovered while descending, in Wh, for
// the given regen level.
func RegenRecoveryWh(massKg, elevationLossM float64, regenLevel int) float64 {
	if elevationLossM <= 0 {
		return 0
	}
	return massKg * gravity * elevationLossM / 3600 * RegenEfficiency(regenLevel)
}

// Conditions are the environment and driving inputs for a consumption
// computation.
type Conditions struct {
	TemperatureC  float64
	AvgSpeedKmh   float64
	Traffic       model.TrafficDensity
	HeadwindKmh   float64
	DurationHours float64
}

// Model computes consumption for one vehicle configuration. It is pure and
// safe for concurrent use.
type Model struct {
	variant model.VehicleVariant
	state   model.VehicleState
}

// New builds a Model for the variant and state pair.
func New(variant model.VehicleVariant, state model.VehicleState) Model {
	return Model{variant: variant, state: state}
}

// TotalMassKg is the single source of vehicle mass for every energy formula:
// variant curb mass plus current payload.
func (m Model) TotalMassKg() float64 {
	return m.variant.MassKg + m.state.PayloadKg
}

// RouteBreakdown computes the additive consumption breakdown for a whole
// route under the given conditions. A zero-distance route yields an all-zero
// breakdown.
func (m Model) RouteBreakdown(route model.Route, cond Conditions) model.ConsumptionBreakdown {
	var b model.ConsumptionBreakdown
	dist := route.TotalDistanceKm
	if dist <= 0 {
		return b
	}

	b.BaseWh = m.variant.BaseWhPerKm * dist

	mass := m.TotalMassKg()
	for _, seg := range route.Segments {
		b.ElevationWh += ClimbingWh(mass, seg.ElevationGainM)
		b.RegenRecoveryWh += RegenRecoveryWh(mass, seg.ElevationLossM, m.state.RegenLevel)
	}

	b.TemperatureWh = b.BaseWh * (1 - TemperatureEfficiency(cond.TemperatureC))
	b.SpeedWh = b.BaseWh * (SpeedFactor(cond.AvgSpeedKmh) - 1)
	b.TrafficWh = b.BaseWh * (TrafficFactor(cond.Traffic) - 1)

	hours := cond.DurationHours
	if hours <= 0 && cond.AvgSpeedKmh > 0 {
		hours = dist / cond.AvgSpeedKmh
	}
	if m.state.HVACOn {
		b.HVACWh = HVACPowerKW(m.state.HVACMode) * hours * 1000
	}
	b.AuxiliaryWh = auxiliaryKW * hours * 1000

	if cond.HeadwindKmh > headwindThresholdKmh {
		b.WindWh = b.BaseWh * headwindCoefficient * (cond.HeadwindKmh / headwindReferenceKmh)
	}

	total := b.BaseWh + b.ElevationWh + b.TemperatureWh + b.SpeedWh +
		b.TrafficWh + b.HVACWh + b.AuxiliaryWh + b.WindWh - b.RegenRecoveryWh
	if total < 0 {
		total = 0
	}
	b.TotalWh = total
	return b
}

// WhPerKm normalizes a breakdown to per-kilometer consumption, guarding the
// zero-distance case.
func WhPerKm(b model.ConsumptionBreakdown, distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	return b.TotalWh / distanceKm
}

// ModelWhPerKm is the model-only path used when a segment has no usable crowd
// data: per-kilometer consumption from base plus the temperature, speed and
// traffic terms, then the secondary state adjustments (payload surcharge,
// tire-pressure surcharge, battery-health derating).
func (m Model) ModelWhPerKm(cond Conditions) float64 {
	base := m.variant.BaseWhPerKm
	whPerKm := base
	whPerKm += base * (1 - TemperatureEfficiency(cond.TemperatureC))
	whPerKm += base * (SpeedFactor(cond.AvgSpeedKmh) - 1)
	whPerKm += base * (TrafficFactor(cond.Traffic) - 1)
	if cond.HeadwindKmh > headwindThresholdKmh {
		whPerKm += base * headwindCoefficient * (cond.HeadwindKmh / headwindReferenceKmh)
	}

	if m.state.PayloadKg > referencePayloadKg {
		excess := m.state.PayloadKg - referencePayloadKg
		whPerKm *= 1 + payloadPctPer10Kg*(excess/10)
	}
	if m.state.TirePressurePSI > 0 && m.state.TirePressurePSI < referenceTirePSI {
		deficit := referenceTirePSI - m.state.TirePressurePSI
		whPerKm *= 1 + tirePctPerPSI*deficit
	}
	if m.state.BatteryHealth > 0 && m.state.BatteryHealth < 100 {
		whPerKm *= 100 / m.state.BatteryHealth
	}
	return whPerKm
}
