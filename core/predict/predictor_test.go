package predict

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anoop-jadhav-ui/RangeIQ/core/geo"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	infralogger "github.com/anoop-jadhav-ui/RangeIQ/infra/logger"
)

// fakeSource serves canned crowd segments.
type fakeSource struct {
	segments map[string]model.CrowdSegment
	err      error
	calls    int
}

func (f *fakeSource) GetSegments(_ context.Context, cells []string) ([]model.CrowdSegment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.CrowdSegment, 0, len(cells))
	for _, c := range cells {
		if s, ok := f.segments[c]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func mondayMorning() time.Time {
	return time.Date(2026, 8, 31, 8, 30, 0, 0, time.UTC)
}

func zeroTime() time.Time { return time.Time{} }

func newTestPredictor(t *testing.T, src SegmentSource) *Predictor {
	t.Helper()
	p, err := New(src, Policy{}, infralogger.NopLogger{}, nil, nil)
	if err != nil {
		t.Fatalf("predictor: %v", err)
	}
	return p
}

func testRequest() Request {
	state := model.NewVehicleState("MR")
	state.SetSoC(80)
	return Request{
		Origin:      model.Coordinate{Latitude: 48.8566, Longitude: 2.3522},
		Destination: model.Coordinate{Latitude: 48.9566, Longitude: 2.3522},
		State:       state,
		AvgSpeedKmh: 60,
	}
}

func originCell(req Request) string {
	return geo.Encode(req.Origin.Latitude, req.Origin.Longitude, geo.DefaultPrecision)
}

func confidentSegment(cell string, avg float64, confidence float64) model.CrowdSegment {
	return model.CrowdSegment{
		Cell:       cell,
		Confidence: confidence,
		Consumption: model.AggregatedConsumption{
			AvgWhPerKm:  avg,
			SampleCount: 100,
		},
	}
}

func TestPredict_UsesCrowdAboveThreshold(t *testing.T) {
	req := testRequest()
	cell := originCell(req)
	src := &fakeSource{segments: map[string]model.CrowdSegment{
		cell: confidentSegment(cell, 150, 0.8),
	}}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	require.True(t, pred.CrowdDataAvailable)
	require.Len(t, pred.Segments, 1)
	require.True(t, pred.Segments[0].CrowdDataUsed)
	require.Equal(t, 150.0, pred.Segments[0].WhPerKm)
	require.Equal(t, 0.8, pred.Segments[0].Confidence)

	// All segments crowd-backed: confidence = 1*0.7 + 0.3.
	require.Equal(t, 1.0, pred.Confidence)
	require.InDelta(t, 150*pred.DistanceKm, pred.EnergyWh, 1e-6)
}

func TestPredict_VariantSpecificAveragePreferred(t *testing.T) {
	req := testRequest()
	cell := originCell(req)
	seg := confidentSegment(cell, 150, 0.9)
	seg.Consumption.ByVariant = map[string]model.VariantStats{
		"MR": {AvgWhPerKm: 128, SampleCount: 12},
	}
	src := &fakeSource{segments: map[string]model.CrowdSegment{cell: seg}}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 128.0, pred.Segments[0].WhPerKm)
}

func TestPredict_LowConfidenceFallsBackToModel(t *testing.T) {
	req := testRequest()
	cell := originCell(req)
	src := &fakeSource{segments: map[string]model.CrowdSegment{
		cell: confidentSegment(cell, 500, 0.2),
	}}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	require.False(t, pred.Segments[0].CrowdDataUsed)
	// 20 C, 60 km/h, free flow: model consumption equals the variant base.
	require.InDelta(t, 130, pred.Segments[0].WhPerKm, 1e-9)
	require.Equal(t, 0.3, pred.Segments[0].Confidence)
	require.Equal(t, 0.4, pred.Confidence)
	require.False(t, pred.CrowdDataAvailable)
}

func TestPredict_StoreFailureDegradesToModel(t *testing.T) {
	req := testRequest()
	src := &fakeSource{err: fmt.Errorf("backend down")}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.False(t, pred.CrowdDataAvailable)
	require.Equal(t, 0.4, pred.Confidence)
	require.Equal(t, 1, src.calls)
}

func TestPredict_NilSourceIsOffline(t *testing.T) {
	p := newTestPredictor(t, nil)
	pred, err := p.Predict(context.Background(), testRequest())
	require.NoError(t, err)
	require.False(t, pred.CrowdDataAvailable)
}

func TestPredict_InvalidRoute(t *testing.T) {
	p := newTestPredictor(t, nil)
	req := testRequest()
	req.Origin.Latitude = 99

	_, err := p.Predict(context.Background(), req)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPredict_InvalidState(t *testing.T) {
	p := newTestPredictor(t, nil)
	req := testRequest()
	req.State.SoC = 130

	_, err := p.Predict(context.Background(), req)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPredict_UnknownVariantFallsBack(t *testing.T) {
	p := newTestPredictor(t, nil)
	req := testRequest()
	req.State.VariantID = "XXL"

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	// Default MR base consumption under reference conditions.
	require.InDelta(t, 130, pred.Segments[0].WhPerKm, 1e-9)
}

func TestPredict_MixedConfidenceShare(t *testing.T) {
	origin := model.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	mid := model.Coordinate{Latitude: 49.2, Longitude: 2.3522}
	dest := model.Coordinate{Latitude: 49.5, Longitude: 2.3522}

	state := model.NewVehicleState("MR")
	req := Request{Origin: origin, Destination: dest, Waypoints: []model.Coordinate{mid}, State: state, AvgSpeedKmh: 60}

	cell := geo.Encode(origin.Latitude, origin.Longitude, geo.DefaultPrecision)
	src := &fakeSource{segments: map[string]model.CrowdSegment{
		cell: confidentSegment(cell, 140, 0.9),
	}}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, pred.Segments, 2)
	require.True(t, pred.Segments[0].CrowdDataUsed)
	require.False(t, pred.Segments[1].CrowdDataUsed)
	// Half the segments crowd-backed: 0.5*0.7 + 0.3.
	require.Equal(t, 0.65, pred.Confidence)
	require.True(t, pred.CrowdDataAvailable)
}

func TestPredict_SoCProjection(t *testing.T) {
	req := testRequest()
	cell := originCell(req)
	src := &fakeSource{segments: map[string]model.CrowdSegment{
		cell: confidentSegment(cell, 150, 0.9),
	}}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	// MR: 30 kWh, full health, 80% SoC.
	wantEnd := 80 - pred.EnergyWh/1000/30*100
	require.InDelta(t, wantEnd, pred.PredictedEndSoC, 1e-9)
	require.True(t, pred.CanComplete)
	require.Greater(t, pred.RemainingRangeKm, 0.0)

	wantRange := 30 * pred.PredictedEndSoC / 100 * 1000 / pred.WhPerKm
	require.InDelta(t, wantRange, pred.RemainingRangeKm, 1e-9)
	require.Equal(t, pred.RemainingRangeKm, pred.SafetyMarginKm)
}

func TestPredict_InfeasibleTrip(t *testing.T) {
	req := testRequest()
	req.State.SetSoC(5)

	p := newTestPredictor(t, nil)
	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.False(t, pred.CanComplete)
	require.GreaterOrEqual(t, pred.PredictedEndSoC, 0.0)
}

func TestPredict_HVACOverhead(t *testing.T) {
	req := testRequest()
	req.State.HVACOn = true
	req.State.HVACMode = model.HVACHeating

	p := newTestPredictor(t, nil)
	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	// 4 kW over dist/60 hours.
	wantHVAC := 4.0 * 1000 * pred.DistanceKm / 60
	require.InDelta(t, wantHVAC, pred.Breakdown.HVACWh, 1e-6)
	require.Greater(t, pred.EnergyWh, pred.Breakdown.BaseWh)
}

func TestPredict_ElevationAndRegen(t *testing.T) {
	req := testRequest()
	req.Origin.Elevation = model.Elev(100)
	req.Destination.Elevation = model.Elev(300)

	p := newTestPredictor(t, nil)
	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	// 1500 kg climbing 200 m.
	wantClimb := 1500 * 9.81 * 200 / 3600.0
	require.InDelta(t, wantClimb, pred.Breakdown.ElevationWh, 1e-6)
	require.Equal(t, 0.0, pred.Breakdown.RegenRecoveryWh)

	// Reverse direction recovers 18% at regen level 2.
	down := req
	down.Origin, down.Destination = down.Destination, down.Origin
	pred, err = p.Predict(context.Background(), down)
	require.NoError(t, err)
	require.Equal(t, 0.0, pred.Breakdown.ElevationWh)
	require.InDelta(t, wantClimb*0.18, pred.Breakdown.RegenRecoveryWh, 1e-6)
}

func TestPredictPhysics_MatchesRouteModel(t *testing.T) {
	req := testRequest()
	req.Weather = &model.WeatherSnapshot{TemperatureC: 28}
	req.Traffic = model.TrafficModerate
	req.State.SetBatteryHealth(98)

	p := newTestPredictor(t, nil)
	pred, err := p.PredictPhysics(req)
	require.NoError(t, err)

	require.Greater(t, pred.EnergyWh, 0.0)
	require.Equal(t, pred.Breakdown.TotalWh, pred.EnergyWh)
	require.Equal(t, 0.4, pred.Confidence)
	require.InDelta(t, pred.EnergyWh/pred.DistanceKm, pred.WhPerKm, 1e-9)
	require.True(t, pred.CanComplete)
}

func TestPredict_TrafficPattern(t *testing.T) {
	req := testRequest()
	// Monday 08:xx, matching the stored pattern.
	req.Departure = mondayMorning()
	cell := originCell(req)

	seg := confidentSegment(cell, 140, 0.9)
	seg.TrafficPatterns = []model.TrafficPattern{{DayOfWeek: 1, Hour: 8, Level: 3}}
	src := &fakeSource{segments: map[string]model.CrowdSegment{cell: seg}}
	p := newTestPredictor(t, src)

	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	wantTraffic := 3 * 10.0 * pred.DistanceKm
	require.InDelta(t, wantTraffic, pred.Breakdown.TrafficWh, 1e-6)
	require.Equal(t, 3, pred.Segments[0].TrafficLevel)

	// No departure time means no pattern term.
	req.Departure = zeroTime()
	pred, err = p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 0.0, pred.Breakdown.TrafficWh)
}

func TestPolicyValidate(t *testing.T) {
	bad := Policy{BlendThreshold: 2}
	bad.SetDefaults()
	require.Error(t, bad.Validate())

	_, err := New(nil, Policy{CrowdWeight: 0.9, CrowdFloor: 0.3}, infralogger.NopLogger{}, nil, nil)
	require.Error(t, err)

	_, err = New(nil, Policy{}, nil, nil, nil)
	require.Error(t, err)
}

func TestPredict_ZeroSpeedUsesDefault(t *testing.T) {
	req := testRequest()
	req.AvgSpeedKmh = 0

	p := newTestPredictor(t, nil)
	pred, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	// Default 60 km/h sits in the neutral speed band.
	require.InDelta(t, 130, pred.Segments[0].WhPerKm, 1e-9)
}
