package physics

import (
	"math"
	"testing"

	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestRegenEfficiency(t *testing.T) {
	want := []float64{0, 0.10, 0.18, 0.25}
	for level, w := range want {
		if got := RegenEfficiency(level); got != w {
			t.Errorf("level %d: got %v, want %v", level, got, w)
		}
	}
	if got := RegenEfficiency(-1); got != 0 {
		t.Errorf("below range: got %v, want 0", got)
	}
	if got := RegenEfficiency(7); got != 0.25 {
		t.Errorf("above range: got %v, want 0.25", got)
	}
}

func TestTemperatureEfficiency(t *testing.T) {
	cases := []struct {
		temp float64
		want float64
	}{
		{-10, 0.70}, {-0.01, 0.70},
		{0, 0.85}, {10, 0.85}, {14.99, 0.85},
		{15, 1.00}, {22, 1.00}, {30, 1.00},
		{30.01, 0.92}, {40, 0.92},
		{40.01, 0.85}, {50, 0.85},
	}
	for _, tc := range cases {
		if got := TemperatureEfficiency(tc.temp); got != tc.want {
			t.Errorf("temp %v: got %v, want %v", tc.temp, got, tc.want)
		}
	}
}

func TestSpeedFactor(t *testing.T) {
	cases := []struct {
		kmh  float64
		want float64
	}{
		{10, 1.15}, {30, 1.15},
		{50, 1.00}, {70, 1.00},
		{80, 1.12}, {90, 1.12},
		{100, 1.28}, {110, 1.28},
		{120, 1.45}, {130, 1.45},
		{150, 1.60},
	}
	for _, tc := range cases {
		if got := SpeedFactor(tc.kmh); got != tc.want {
			t.Errorf("speed %v: got %v, want %v", tc.kmh, got, tc.want)
		}
	}
}

func TestTrafficFactor(t *testing.T) {
	cases := []struct {
		d    model.TrafficDensity
		want float64
	}{
		{model.TrafficFreeFlow, 1.00},
		{model.TrafficLight, 1.05},
		{model.TrafficModerate, 1.12},
		{model.TrafficHeavy, 1.25},
		{model.TrafficCongested, 1.40},
	}
	for _, tc := range cases {
		if got := TrafficFactor(tc.d); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestHVACPowerKW(t *testing.T) {
	if got := HVACPowerKW(model.HVACHeating); got != 4.0 {
		t.Errorf("heating: got %v", got)
	}
	if got := HVACPowerKW(model.HVACCooling); got != 2.5 {
		t.Errorf("cooling: got %v", got)
	}
	if got := HVACPowerKW(model.HVACOff); got != 0 {
		t.Errorf("off: got %v", got)
	}
}

func TestClimbingAndRegen(t *testing.T) {
	// 1580 kg climbing 100 m: 1580 * 9.81 * 100 / 3600 = 430.55 Wh.
	if got := ClimbingWh(1580, 100); !almostEqual(got, 430.55, 0.01) {
		t.Errorf("climbing: got %v", got)
	}
	if got := ClimbingWh(1580, 0); got != 0 {
		t.Errorf("flat climb: got %v", got)
	}
	if got := ClimbingWh(1580, -50); got != 0 {
		t.Errorf("negative gain: got %v", got)
	}

	// Same descent at regen level 2 recovers 18%.
	if got := RegenRecoveryWh(1580, 100, 2); !almostEqual(got, 430.55*0.18, 0.01) {
		t.Errorf("regen: got %v", got)
	}
	if got := RegenRecoveryWh(1580, 0, 3); got != 0 {
		t.Errorf("flat regen: got %v", got)
	}
	if got := RegenRecoveryWh(1580, 100, 0); got != 0 {
		t.Errorf("regen off: got %v", got)
	}
}

func flatRoute(t *testing.T, distKm float64) model.Route {
	t.Helper()
	// One degree of longitude at the equator is ~111.19 km; scale for distKm.
	lng := distKm / 111.19
	route, err := model.NewRoute(
		model.Coordinate{Latitude: 0, Longitude: 0},
		model.Coordinate{Latitude: 0, Longitude: lng},
	)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	return route
}

func TestRouteBreakdown_ReferenceTrip(t *testing.T) {
	// MR variant, 100 km flat, 28 C, moderate traffic, HVAC off: total is
	// base * traffic factor = 130 * 100 * 1.12 Wh plus the auxiliary draw.
	variant, err := model.VariantByID("MR")
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	state := model.NewVehicleState("MR")
	state.SetSoC(80)
	state.SetBatteryHealth(98)

	m := New(variant, state)
	route := flatRoute(t, 100)
	cond := Conditions{TemperatureC: 28, AvgSpeedKmh: 60, Traffic: model.TrafficModerate}

	b := m.RouteBreakdown(route, cond)

	dist := route.TotalDistanceKm
	wantBase := 130 * dist
	if !almostEqual(b.BaseWh, wantBase, 0.5) {
		t.Errorf("base: got %v, want %v", b.BaseWh, wantBase)
	}
	if b.TemperatureWh != 0 {
		t.Errorf("temperature term in optimal band: got %v", b.TemperatureWh)
	}
	if b.SpeedWh != 0 {
		t.Errorf("speed term at 60 km/h: got %v", b.SpeedWh)
	}
	if !almostEqual(b.TrafficWh, wantBase*0.12, 0.5) {
		t.Errorf("traffic: got %v, want %v", b.TrafficWh, wantBase*0.12)
	}
	if b.HVACWh != 0 {
		t.Errorf("hvac off: got %v", b.HVACWh)
	}
	if b.RegenRecoveryWh != 0 {
		t.Errorf("flat route regen: got %v", b.RegenRecoveryWh)
	}
	if b.ElevationWh != 0 {
		t.Errorf("flat route elevation: got %v", b.ElevationWh)
	}

	// Aux draw over dist/60 hours at 150 W.
	wantAux := 0.15 * dist / 60 * 1000
	if !almostEqual(b.AuxiliaryWh, wantAux, 0.5) {
		t.Errorf("auxiliary: got %v, want %v", b.AuxiliaryWh, wantAux)
	}

	wantTotal := wantBase*1.12 + wantAux
	if !almostEqual(b.TotalWh, wantTotal, 1) {
		t.Errorf("total: got %v, want %v", b.TotalWh, wantTotal)
	}
	// The reference trip lands near 14.56 kWh before auxiliaries.
	if b.TotalWh < 14300 || b.TotalWh > 14900 {
		t.Errorf("total out of expected envelope: %v Wh", b.TotalWh)
	}
}

func TestRouteBreakdown_ZeroDistance(t *testing.T) {
	variant, _ := model.VariantByID("MR")
	m := New(variant, model.NewVehicleState("MR"))
	b := m.RouteBreakdown(model.Route{}, Conditions{TemperatureC: 20, AvgSpeedKmh: 60})
	if b.TotalWh != 0 || b.BaseWh != 0 {
		t.Errorf("zero-distance breakdown not empty: %+v", b)
	}
}

func TestRouteBreakdown_HVACAndWind(t *testing.T) {
	variant, _ := model.VariantByID("LR")
	state := model.NewVehicleState("MR")
	state.HVACOn = true
	state.HVACMode = model.HVACHeating

	m := New(variant, state)
	route := flatRoute(t, 50)
	cond := Conditions{TemperatureC: -5, AvgSpeedKmh: 100, Traffic: model.TrafficFreeFlow, HeadwindKmh: 30}

	b := m.RouteBreakdown(route, cond)
	dist := route.TotalDistanceKm
	base := 125 * dist

	if !almostEqual(b.TemperatureWh, base*0.30, 0.5) {
		t.Errorf("cold penalty: got %v, want %v", b.TemperatureWh, base*0.30)
	}
	if !almostEqual(b.SpeedWh, base*0.28, 0.5) {
		t.Errorf("speed penalty: got %v, want %v", b.SpeedWh, base*0.28)
	}
	wantHVAC := 4.0 * (dist / 100) * 1000
	if !almostEqual(b.HVACWh, wantHVAC, 0.5) {
		t.Errorf("hvac: got %v, want %v", b.HVACWh, wantHVAC)
	}
	wantWind := base * 0.08 * (30.0 / 30.0)
	if !almostEqual(b.WindWh, wantWind, 0.5) {
		t.Errorf("wind: got %v, want %v", b.WindWh, wantWind)
	}
}

func TestRouteBreakdown_WindThreshold(t *testing.T) {
	variant, _ := model.VariantByID("MR")
	m := New(variant, model.NewVehicleState("MR"))
	route := flatRoute(t, 10)
	b := m.RouteBreakdown(route, Conditions{TemperatureC: 20, AvgSpeedKmh: 60, HeadwindKmh: 10})
	if b.WindWh != 0 {
		t.Errorf("headwind at threshold should not add drag: got %v", b.WindWh)
	}
}

func TestTotalMassKg(t *testing.T) {
	variant, _ := model.VariantByID("SR")
	state := model.NewVehicleState("MR")
	state.SetPayload(200)
	m := New(variant, state)
	if got := m.TotalMassKg(); got != 1450+200 {
		t.Errorf("got %v", got)
	}
}

func TestModelWhPerKm_Adjustments(t *testing.T) {
	variant, _ := model.VariantByID("MR")
	cond := Conditions{TemperatureC: 20, AvgSpeedKmh: 60, Traffic: model.TrafficFreeFlow}

	base := New(variant, model.NewVehicleState("MR")).ModelWhPerKm(cond)
	if !almostEqual(base, 130, 1e-9) {
		t.Fatalf("reference conditions: got %v, want 130", base)
	}

	// 250 kg payload is 100 kg over reference: +5%.
	heavy := model.NewVehicleState("MR")
	heavy.SetPayload(250)
	if got := New(variant, heavy).ModelWhPerKm(cond); !almostEqual(got, 130*1.05, 1e-9) {
		t.Errorf("payload: got %v, want %v", got, 130*1.05)
	}

	// 30 PSI is 5 under reference: +5%.
	soft := model.NewVehicleState("MR")
	soft.SetTirePressure(30)
	if got := New(variant, soft).ModelWhPerKm(cond); !almostEqual(got, 130*1.05, 1e-9) {
		t.Errorf("tires: got %v, want %v", got, 130*1.05)
	}

	// 80% battery health derates usable energy, raising effective Wh/km.
	worn := model.NewVehicleState("MR")
	worn.SetBatteryHealth(80)
	if got := New(variant, worn).ModelWhPerKm(cond); !almostEqual(got, 130*100/80, 1e-9) {
		t.Errorf("health: got %v, want %v", got, 130*100/80)
	}
}

func TestModelWhPerKm_CombinedFactors(t *testing.T) {
	variant, _ := model.VariantByID("SR")
	got := New(variant, model.NewVehicleState("MR")).ModelWhPerKm(Conditions{
		TemperatureC: -5,
		AvgSpeedKmh:  120,
		Traffic:      model.TrafficHeavy,
	})
	// 140 * (1 + 0.30 + 0.45 + 0.25)
	want := 140 * 2.0
	if !almostEqual(got, float64(want), 1e-9) {
		t.Errorf("got %v, want %v", got, want)
	}
}
