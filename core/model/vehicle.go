package model

import (
	"fmt"
	"strings"
)

// VehicleVariant is an immutable specification of one catalog entry.
type VehicleVariant struct {
	ID              string  // catalog id, e.g. "MR"
	Name            string  // display name
	BatteryKWh      float64 // usable battery capacity in kWh
	BaseWhPerKm     float64 // consumption at reference conditions
	MotorEfficiency float64 // drivetrain efficiency in (0,1]
	MassKg          float64 // curb mass without payload
}

// DefaultVariantID is the catalog entry used when a request names an unknown
// variant. Callers should log the substitution rather than abort.
const DefaultVariantID = "MR"

var variantCatalog = map[string]VehicleVariant{
	"SR": {ID: "SR", Name: "Standard Range", BatteryKWh: 24, BaseWhPerKm: 140, MotorEfficiency: 0.90, MassKg: 1450},
	"MR": {ID: "MR", Name: "Mid Range", BatteryKWh: 30, BaseWhPerKm: 130, MotorEfficiency: 0.92, MassKg: 1500},
	"LR": {ID: "LR", Name: "Long Range", BatteryKWh: 40, BaseWhPerKm: 125, MotorEfficiency: 0.93, MassKg: 1580},
}

// VariantByID resolves a catalog entry. It returns ErrUnknownVariant for ids
// missing from the catalog; the default variant is still returned so callers
// can degrade instead of failing the whole request.
func VariantByID(id string) (VehicleVariant, error) {
	if v, ok := variantCatalog[strings.ToUpper(id)]; ok {
		return v, nil
	}
	return variantCatalog[DefaultVariantID], fmt.Errorf("%w: %q", ErrUnknownVariant, id)
}

// Variants returns the catalog entries. The returned slice is a copy.
func Variants() []VehicleVariant {
	out := make([]VehicleVariant, 0, len(variantCatalog))
	for _, v := range variantCatalog {
		out = append(out, v)
	}
	return out
}

// HVACMode selects the climate system operating mode.
type HVACMode int

const (
	HVACOff HVACMode = iota
	HVACHeating
	HVACCooling
)

// String returns the wire representation of the mode.
func (m HVACMode) String() string {
	switch m {
	case HVACHeating:
		return "heating"
	case HVACCooling:
		return "cooling"
	default:
		return "off"
	}
}

// ParseHVACMode maps a wire string to a mode; unknown strings mean off.
func ParseHVACMode(s string) HVACMode {
	switch strings.ToLower(s) {
	case "heating", "heat":
		return HVACHeating
	case "cooling", "cool", "ac":
		return HVACCooling
	default:
		return HVACOff
	}
}

// Physical bounds applied by the VehicleState setters.
const (
	MinRegenLevel = 0
	MaxRegenLevel = 3

	minTirePressurePSI = 20
	maxTirePressurePSI = 50
	maxPayloadKg       = 600
)

// VehicleState is the mutable per-session vehicle condition. Mutations go
// through the clamping setters or ApplyPatch so values always stay inside
// physical ranges.
type VehicleState struct {
	VariantID       string   `json:"variantId"`
	SoC             float64  `json:"soc"`           // state of charge, 0-100 %
	BatteryHealth   float64  `json:"batteryHealth"` // 0-100 %
	BatteryTempC    float64  `json:"batteryTemperature"`
	RegenLevel      int      `json:"regenLevel"` // 0-3
	HVACOn          bool     `json:"hvacOn"`
	HVACMode        HVACMode `json:"-"`
	HVACTargetC     float64  `json:"hvacTemperature"`
	TirePressurePSI float64  `json:"tirePressure"`
	PayloadKg       float64  `json:"payload"`
}

// NewVehicleState returns a state with neutral defaults for the variant.
func NewVehicleState(variantID string) VehicleState {
	return VehicleState{
		VariantID:       variantID,
		SoC:             100,
		BatteryHealth:   100,
		BatteryTempC:    20,
		RegenLevel:      2,
		HVACTargetC:     21,
		TirePressurePSI: 35,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetSoC clamps the state of charge to [0,100].
func (s *VehicleState) SetSoC(pct float64) { s.SoC = clamp(pct, 0, 100) }

// SetBatteryHealth clamps battery health to [1,100]. Zero health would make
// the derating formula divide by zero, so 1% is the floor.
func (s *VehicleState) SetBatteryHealth(pct float64) { s.BatteryHealth = clamp(pct, 1, 100) }

// SetRegenLevel clamps the regeneration level to the discrete 0-3 range.
func (s *VehicleState) SetRegenLevel(level int) {
	if level < MinRegenLevel {
		level = MinRegenLevel
	}
	if level > MaxRegenLevel {
		level = MaxRegenLevel
	}
	s.RegenLevel = level
}

// SetTirePressure clamps tire pressure to a plausible PSI window.
func (s *VehicleState) SetTirePressure(psi float64) {
	s.TirePressurePSI = clamp(psi, minTirePressurePSI, maxTirePressurePSI)
}

// SetPayload clamps payload mass to [0,maxPayloadKg].
func (s *VehicleState) SetPayload(kg float64) { s.PayloadKg = clamp(kg, 0, maxPayloadKg) }

// Validate checks the state without mutating it.
func (s VehicleState) Validate() error {
	if s.SoC < 0 || s.SoC > 100 {
		return fmt.Errorf("%w: soc %.1f out of range [0,100]", ErrInvalidInput, s.SoC)
	}
	if s.BatteryHealth <= 0 || s.BatteryHealth > 100 {
		return fmt.Errorf("%w: battery health %.1f out of range (0,100]", ErrInvalidInput, s.BatteryHealth)
	}
	if s.RegenLevel < MinRegenLevel || s.RegenLevel > MaxRegenLevel {
		return fmt.Errorf("%w: regen level %d out of range [0,3]", ErrInvalidInput, s.RegenLevel)
	}
	if s.PayloadKg < 0 {
		return fmt.Errorf("%w: negative payload", ErrInvalidInput)
	}
	return nil
}

// StatePatch enumerates the mutable VehicleState fields. Nil fields are left
// untouched; set fields are validated and clamped on apply.
type StatePatch struct {
	SoC             *float64  `json:"soc,omitempty"`
	BatteryHealth   *float64  `json:"batteryHealth,omitempty"`
	BatteryTempC    *float64  `json:"batteryTemperature,omitempty"`
	RegenLevel      *int      `json:"regenLevel,omitempty"`
	HVACOn          *bool     `json:"hvacOn,omitempty"`
	HVACMode        *HVACMode `json:"hvacMode,omitempty"`
	HVACTargetC     *float64  `json:"hvacTemperature,omitempty"`
	TirePressurePSI *float64  `json:"tirePressure,omitempty"`
	PayloadKg       *float64  `json:"payload,omitempty"`
}

// ApplyPatch merges the patch into the state through the clamping setters and
// returns the updated copy.
func (s VehicleState) ApplyPatch(p StatePatch) VehicleState {
	if p.SoC != nil {
		s.SetSoC(*p.SoC)
	}
	if p.BatteryHealth != nil {
		s.SetBatteryHealth(*p.BatteryHealth)
	}
	if p.BatteryTempC != nil {
		s.BatteryTempC = *p.BatteryTempC
	}
	if p.RegenLevel != nil {
		s.SetRegenLevel(*p.RegenLevel)
	}
	if p.HVACOn != nil {
		s.HVACOn = *p.HVACOn
	}
	if p.HVACMode != nil {
		s.HVACMode = *p.HVACMode
	}
	if p.HVACTargetC != nil {
		s.HVACTargetC = *p.HVACTargetC
	}
	if p.TirePressurePSI != nil {
		s.SetTirePressure(*p.TirePressurePSI)
	}
	if p.PayloadKg != nil {
		s.SetPayload(*p.PayloadKg)
	}
	return s
}

// UsableCapacityKWh returns the battery capacity derated by health and scaled
// by the current state of charge.
func (s VehicleState) UsableCapacityKWh(v VehicleVariant) float64 {
	return v.BatteryKWh * s.SoC / 100 * s.BatteryHealth / 100
}
