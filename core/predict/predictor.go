// Package predict orchestrates trip predictions: per-segment crowd lookups
// blended with the physics model, plus a whole-route physics projection that
// keeps predictions available when no crowd store is reachable.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anoop-jadhav-ui/RangeIQ/core/geo"
	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/physics"
	"github.com/anoop-jadhav-ui/RangeIQ/internal/eventbus"
)

// Policy holds the blending constants. They are deliberate policy knobs, not
// derived from a statistical principle, so they stay configurable.
type Policy struct {
	// BlendThreshold is the minimum crowd confidence for a segment to use
	// crowd data instead of the model estimate.
	BlendThreshold float64 `json:"blend_threshold"`
	// CrowdWeight scales the crowd segment share in the overall confidence:
	// confidence = share*CrowdWeight + CrowdFloor.
	CrowdWeight float64 `json:"crowd_weight"`
	CrowdFloor  float64 `json:"crowd_floor"`
	// ModelConfidence is assigned to segments predicted without crowd data.
	ModelConfidence float64 `json:"model_confidence"`
	// ModelOnlyConfidence is the overall confidence when no segment used
	// crowd data.
	ModelOnlyConfidence float64 `json:"model_only_confidence"`
	// ReserveSoCPct is the safety buffer: a trip is feasible only if the
	// predicted end SoC stays at or above it.
	ReserveSoCPct float64 `json:"reserve_soc_pct"`
	// TrafficWhPerLevel is the per-km consumption impact of one crowd
	// traffic-pattern level.
	TrafficWhPerLevel float64 `json:"traffic_wh_per_level"`
	// GeohashPrecision is the cell precision used for crowd lookups.
	GeohashPrecision int `json:"geohash_precision"`
	// DefaultSpeedKmh is assumed when a request carries no average speed.
	DefaultSpeedKmh float64 `json:"default_speed_kmh"`
}

// SetDefaults applies the documented policy constants.
func (p *Policy) SetDefaults() {
	if p.BlendThreshold == 0 {
		p.BlendThreshold = 0.5
	}
	if p.CrowdWeight == 0 {
		p.CrowdWeight = 0.7
	}
	if p.CrowdFloor == 0 {
		p.CrowdFloor = 0.3
	}
	if p.ModelConfidence == 0 {
		p.ModelConfidence = 0.3
	}
	if p.ModelOnlyConfidence == 0 {
		p.ModelOnlyConfidence = 0.4
	}
	if p.ReserveSoCPct == 0 {
		p.ReserveSoCPct = 5
	}
	if p.TrafficWhPerLevel == 0 {
		p.TrafficWhPerLevel = 10
	}
	if p.GeohashPrecision == 0 {
		p.GeohashPrecision = geo.DefaultPrecision
	}
	if p.DefaultSpeedKmh == 0 {
		p.DefaultSpeedKmh = 60
	}
}

// Validate checks the policy ranges.
func (p Policy) Validate() error {
	if p.BlendThreshold < 0 || p.BlendThreshold > 1 {
		return fmt.Errorf("blend_threshold %.2f out of range [0,1]", p.BlendThreshold)
	}
	if p.CrowdWeight+p.CrowdFloor > 1 {
		return fmt.Errorf("crowd_weight %.2f + crowd_floor %.2f exceeds 1", p.CrowdWeight, p.CrowdFloor)
	}
	if p.GeohashPrecision < 1 || p.GeohashPrecision > 12 {
		return fmt.Errorf("geohash_precision %d out of range [1,12]", p.GeohashPrecision)
	}
	return nil
}

// SegmentSource is the crowd read boundary. Missing cells are absent from
// the result, not errors.
type SegmentSource interface {
	GetSegments(ctx context.Context, cells []string) ([]model.CrowdSegment, error)
}

// Request is a prediction request. Weather and Traffic are optional; zero
// values mean mild conditions and free-flow traffic.
type Request struct {
	Origin      model.Coordinate
	Destination model.Coordinate
	Waypoints   []model.Coordinate
	State       model.VehicleState
	Weather     *model.WeatherSnapshot
	Traffic     model.TrafficDensity
	AvgSpeedKmh float64
	Departure   time.Time
}

// Predictor computes trip predictions. The computation itself is pure; the
// only suspension point is the crowd segment query.
type Predictor struct {
	crowd  SegmentSource
	policy Policy
	log    logger.Logger
	sink   metrics.Sink
	bus    eventbus.EventBus
}

// New wires a predictor. crowd may be nil for a purely offline instance;
// sink and bus may be nil.
func New(crowd SegmentSource, policy Policy, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus) (*Predictor, error) {
	if log == nil {
		return nil, fmt.Errorf("predict: nil logger")
	}
	policy.SetDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Predictor{crowd: crowd, policy: policy, log: log, sink: sink, bus: bus}, nil
}

// Predict walks the route segment by segment, preferring crowd data above the
// confidence threshold and falling back to the physics model otherwise. A
// failing crowd query is non-fatal: the whole route degrades to model-only
// estimates.
func (p *Predictor) Predict(ctx context.Context, req Request) (model.TripPrediction, error) {
	route, err := model.NewRoute(req.Origin, req.Destination, req.Waypoints...)
	if err != nil {
		return model.TripPrediction{}, err
	}
	if err := req.State.Validate(); err != nil {
		return model.TripPrediction{}, err
	}

	variant, verr := model.VariantByID(req.State.VariantID)
	if verr != nil {
		p.log.Warnf("unknown variant %q, using %s: %v", req.State.VariantID, variant.ID, verr)
	}

	phys := physics.New(variant, req.State)
	cond := p.conditions(req, route)
	segMap, crowdAvailable := p.fetchSegments(ctx, route)

	var (
		pred       model.TripPrediction
		crowdCount int
		mass       = phys.TotalMassKg()
	)
	pred.Segments = make([]model.SegmentPrediction, 0, len(route.Segments))

	for _, seg := range route.Segments {
		cell := geo.Encode(seg.From.Latitude, seg.From.Longitude, p.policy.GeohashPrecision)
		sp := model.SegmentPrediction{Geohash: cell, DistanceKm: seg.DistanceKm}

		if cs, ok := segMap[cell]; ok && cs.Confidence > p.policy.BlendThreshold {
			sp.WhPerKm = crowdWhPerKm(cs, variant.ID)
			sp.Confidence = cs.Confidence
			sp.CrowdDataUsed = true
			crowdCount++
		} else {
			sp.WhPerKm = phys.ModelWhPerKm(cond)
			sp.Confidence = p.policy.ModelConfidence
		}

		segWh := sp.WhPerKm * seg.DistanceKm
		pred.Breakdown.BaseWh += segWh

		// HVAC overhead scales with time spent on the segment.
		if req.State.HVACOn && cond.AvgSpeedKmh > 0 {
			hvacWh := physics.HVACPowerKW(req.State.HVACMode) * 1000 * seg.DistanceKm / cond.AvgSpeedKmh
			pred.Breakdown.HVACWh += hvacWh
			segWh += hvacWh
		}

		if seg.From.HasElevation() && seg.To.HasElevation() {
			climb := physics.ClimbingWh(mass, seg.ElevationGainM)
			regen := physics.RegenRecoveryWh(mass, seg.ElevationLossM, req.State.RegenLevel)
			pred.Breakdown.ElevationWh += climb
			pred.Breakdown.RegenRecoveryWh += regen
			segWh += climb - regen
		}

		if cs, ok := segMap[cell]; ok && !req.Departure.IsZero() {
			if pat, found := cs.TrafficPatternFor(req.Departure); found {
				trafficWh := float64(pat.Level) * p.policy.TrafficWhPerLevel * seg.DistanceKm
				pred.Breakdown.TrafficWh += trafficWh
				segWh += trafficWh
				sp.TrafficLevel = pat.Level
			}
		}

		pred.EnergyWh += segWh
		pred.Segments = append(pred.Segments, sp)
	}

	if pred.EnergyWh < 0 {
		pred.EnergyWh = 0
	}
	pred.Breakdown.TotalWh = pred.EnergyWh
	pred.DistanceKm = route.TotalDistanceKm
	pred.CrowdDataAvailable = crowdAvailable && crowdCount > 0
	if route.TotalDistanceKm > 0 {
		pred.WhPerKm = pred.EnergyWh / route.TotalDistanceKm
	}
	if pred.WhPerKm > 0 {
		pred.EstimatedRangeKm = variant.BatteryKWh * 1000 / pred.WhPerKm
	}
	if crowdCount > 0 {
		share := float64(crowdCount) / float64(len(route.Segments))
		pred.Confidence = round2(share*p.policy.CrowdWeight + p.policy.CrowdFloor)
	} else {
		pred.Confidence = p.policy.ModelOnlyConfidence
	}

	p.project(&pred, variant, req.State)
	p.publish(pred, crowdCount)
	return pred, nil
}

// PredictPhysics derives the whole-route physics prediction, independent of
// any crowd data. It is the primary path when no backend is reachable.
func (p *Predictor) PredictPhysics(req Request) (model.TripPrediction, error) {
	route, err := model.NewRoute(req.Origin, req.Destination, req.Waypoints...)
	if err != nil {
		return model.TripPrediction{}, err
	}
	if err := req.State.Validate(); err != nil {
		return model.TripPrediction{}, err
	}
	variant, verr := model.VariantByID(req.State.VariantID)
	if verr != nil {
		p.log.Warnf("unknown variant %q, using %s: %v", req.State.VariantID, variant.ID, verr)
	}

	phys := physics.New(variant, req.State)
	cond := p.conditions(req, route)

	var pred model.TripPrediction
	pred.Breakdown = phys.RouteBreakdown(route, cond)
	pred.EnergyWh = pred.Breakdown.TotalWh
	pred.DistanceKm = route.TotalDistanceKm
	pred.WhPerKm = physics.WhPerKm(pred.Breakdown, route.TotalDistanceKm)
	if pred.WhPerKm > 0 {
		pred.EstimatedRangeKm = variant.BatteryKWh * 1000 / pred.WhPerKm
	}
	pred.Confidence = p.policy.ModelOnlyConfidence

	modelWh := phys.ModelWhPerKm(cond)
	pred.Segments = make([]model.SegmentPrediction, 0, len(route.Segments))
	for _, seg := range route.Segments {
		pred.Segments = append(pred.Segments, model.SegmentPrediction{
			Geohash:    geo.Encode(seg.From.Latitude, seg.From.Longitude, p.policy.GeohashPrecision),
			DistanceKm: seg.DistanceKm,
			WhPerKm:    modelWh,
			Confidence: p.policy.ModelConfidence,
		})
	}

	p.project(&pred, variant, req.State)
	p.publish(pred, 0)
	return pred, nil
}

// project derives the end-of-trip state of charge, remaining range and
// feasibility from the accumulated energy figure.
func (p *Predictor) project(pred *model.TripPrediction, variant model.VehicleVariant, state model.VehicleState) {
	usableKWh := variant.BatteryKWh * state.BatteryHealth / 100
	if usableKWh <= 0 {
		return
	}
	endSoC := state.SoC - pred.EnergyWh/1000/usableKWh*100
	if endSoC < 0 {
		endSoC = 0
	}
	if endSoC > 100 {
		endSoC = 100
	}
	pred.PredictedEndSoC = endSoC

	if pred.WhPerKm > 0 {
		remainingKWh := usableKWh * endSoC / 100
		pred.RemainingRangeKm = remainingKWh * 1000 / pred.WhPerKm
	}
	pred.CanComplete = endSoC >= p.policy.ReserveSoCPct
	pred.SafetyMarginKm = pred.RemainingRangeKm
}

func (p *Predictor) conditions(req Request, route model.Route) physics.Conditions {
	cond := physics.Conditions{Traffic: req.Traffic, AvgSpeedKmh: req.AvgSpeedKmh}
	if cond.AvgSpeedKmh <= 0 {
		cond.AvgSpeedKmh = p.policy.DefaultSpeedKmh
	}
	if req.Weather != nil {
		cond.TemperatureC = req.Weather.TemperatureC
		cond.HeadwindKmh = req.Weather.HeadwindKmh
	} else {
		cond.TemperatureC = 20
	}
	cond.DurationHours = route.TotalDistanceKm / cond.AvgSpeedKmh
	return cond
}

// fetchSegments performs the batch crowd lookup. Store failures only disable
// the crowd path; they never fail the prediction.
func (p *Predictor) fetchSegments(ctx context.Context, route model.Route) (map[string]model.CrowdSegment, bool) {
	if p.crowd == nil {
		return nil, false
	}
	cells := make([]string, 0, len(route.Segments))
	seen := make(map[string]struct{}, len(route.Segments))
	for _, seg := range route.Segments {
		cell := geo.Encode(seg.From.Latitude, seg.From.Longitude, p.policy.GeohashPrecision)
		if _, ok := seen[cell]; ok {
			continue
		}
		seen[cell] = struct{}{}
		cells = append(cells, cell)
	}
	segs, err := p.crowd.GetSegments(ctx, cells)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warnf("crowd lookup failed, degrading to model-only: %v", err)
		}
		return nil, false
	}
	out := make(map[string]model.CrowdSegment, len(segs))
	for _, s := range segs {
		out[s.Cell] = s
	}
	return out, true
}

func (p *Predictor) publish(pred model.TripPrediction, crowdCount int) {
	source := "model"
	if crowdCount > 0 {
		if crowdCount == len(pred.Segments) {
			source = "crowd"
		} else {
			source = "mixed"
		}
	}
	_ = p.sink.RecordPrediction(metrics.PredictionRecord{
		Source:        source,
		DistanceKm:    pred.DistanceKm,
		EnergyWh:      pred.EnergyWh,
		WhPerKm:       pred.WhPerKm,
		RangeKm:       pred.EstimatedRangeKm,
		Confidence:    pred.Confidence,
		SegmentCount:  len(pred.Segments),
		CrowdSegments: crowdCount,
	})
	if p.bus != nil {
		p.bus.Publish(eventbus.PredictionComputed{
			DistanceKm: pred.DistanceKm,
			EnergyWh:   pred.EnergyWh,
			Confidence: pred.Confidence,
			ComputedAt: time.Now().UTC(),
		})
	}
}

// crowdWhPerKm prefers the variant-specific running average when the cell has
// samples for that variant, else the overall average.
func crowdWhPerKm(seg model.CrowdSegment, variantID string) float64 {
	if vs, ok := seg.Consumption.ByVariant[variantID]; ok && vs.SampleCount > 0 {
		return vs.AvgWhPerKm
	}
	return seg.Consumption.AvgWhPerKm
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
