// Package crowd maintains per-geocell running consumption statistics. Only
// aggregates are kept; raw samples are discarded after the incremental
// update, which is both the memory bound and the privacy guarantee.
package crowd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
	"github.com/anoop-jadhav-ui/RangeIQ/internal/eventbus"
)

// ErrConflict is returned when an ingest lost the optimistic-concurrency race
// more times than the retry budget allows. Callers treat it as retryable: the
// originating trip stays unsynced and is replayed on the next sync cycle.
var ErrConflict = errors.New("concurrent segment update conflict")

// Config bounds the optimistic-concurrency retry loop.
type Config struct {
	// MaxRetries is the number of additional attempts after the first
	// conflicting write.
	MaxRetries int `json:"max_retries"`
	// RetryBackoffMS is the linear backoff unit between attempts, in
	// milliseconds: attempt n sleeps n*RetryBackoffMS.
	RetryBackoffMS int `json:"retry_backoff_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryBackoffMS <= 0 {
		c.RetryBackoffMS = 10
	}
}

// Validate checks bounds.
func (c Config) Validate() error {
	if c.MaxRetries > 50 {
		return fmt.Errorf("max_retries %d unreasonably large", c.MaxRetries)
	}
	return nil
}

// Observation is one consumption sample attributed to a geocell.
type Observation struct {
	WhPerKm          float64
	TemperatureC     float64
	RegenLevel       int
	DistanceKm       float64
	ElevationChangeM float64
	AvgSpeedKmh      float64
	RoadType         model.RoadType
	TrafficLevel     int
	ObservedAt       time.Time
}

// IngestResult reports which branch an ingest took, for caller-side metrics.
type IngestResult struct {
	Created bool
	Updated bool
}

// Aggregator applies observations to the segment store. Writes to the same
// cell are serialized through conditional puts on the segment version token;
// writes to different cells never block each other.
type Aggregator struct {
	segments store.SegmentStore
	cfg      Config
	log      logger.Logger
	sink     metrics.Sink
	bus      eventbus.EventBus
	sleep    func(time.Duration) // injectable for tests
}

// NewAggregator wires an aggregator. sink and bus may be nil.
func NewAggregator(segments store.SegmentStore, cfg Config, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus) (*Aggregator, error) {
	if segments == nil {
		return nil, fmt.Errorf("crowd: nil segment store")
	}
	if log == nil {
		return nil, fmt.Errorf("crowd: nil logger")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Aggregator{segments: segments, cfg: cfg, log: log, sink: sink, bus: bus, sleep: time.Sleep}, nil
}

// Ingest applies one observation to the cell's aggregate. It retries version
// conflicts with linear backoff and fails with ErrConflict after the retry
// budget is exhausted.
func (a *Aggregator) Ingest(ctx context.Context, cell, variantID string, obs Observation) (IngestResult, error) {
	if cell == "" {
		return IngestResult{}, fmt.Errorf("%w: empty cell", model.ErrInvalidInput)
	}
	if obs.WhPerKm < 0 {
		return IngestResult{}, fmt.Errorf("%w: negative consumption", model.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return IngestResult{}, err
		}
		if attempt > 0 {
			a.sleep(time.Duration(attempt*a.cfg.RetryBackoffMS) * time.Millisecond)
		}

		res, seg, err := a.ingestOnce(ctx, cell, variantID, obs)
		if err == nil {
			a.record(cell, variantID, obs.WhPerKm, res, seg)
			return res, nil
		}
		if !errors.Is(err, store.ErrVersionMismatch) {
			return IngestResult{}, err
		}
		lastErr = err
		a.log.Debugf("ingest conflict on cell %s, attempt %d", cell, attempt+1)
	}

	a.log.Warnf("ingest gave up on cell %s after %d attempts", cell, a.cfg.MaxRetries+1)
	_ = a.sink.RecordIngest([]metrics.IngestRecord{{Cell: cell, VariantID: variantID, Result: "conflict", WhPerKm: obs.WhPerKm}})
	return IngestResult{}, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (a *Aggregator) ingestOnce(ctx context.Context, cell, variantID string, obs Observation) (IngestResult, model.CrowdSegment, error) {
	seg, err := a.segments.GetSegment(ctx, cell)
	switch {
	case errors.Is(err, store.ErrNotFound):
		seg = newSegment(cell, variantID, obs)
		if err := a.segments.PutSegment(ctx, seg, 0); err != nil {
			return IngestResult{}, model.CrowdSegment{}, err
		}
		return IngestResult{Created: true}, seg, nil
	case err != nil:
		return IngestResult{}, model.CrowdSegment{}, err
	}

	applyObservation(&seg, variantID, obs)
	if err := a.segments.PutSegment(ctx, seg, seg.Version); err != nil {
		return IngestResult{}, model.CrowdSegment{}, err
	}
	return IngestResult{Updated: true}, seg, nil
}

// GetSegments fetches crowd data for a set of cells. Missing cells are simply
// absent from the result.
func (a *Aggregator) GetSegments(ctx context.Context, cells []string) ([]model.CrowdSegment, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	return a.segments.GetSegments(ctx, cells)
}

func (a *Aggregator) record(cell, variantID string, whPerKm float64, res IngestResult, seg model.CrowdSegment) {
	result := "updated"
	if res.Created {
		result = "created"
	}
	_ = a.sink.RecordIngest([]metrics.IngestRecord{{Cell: cell, VariantID: variantID, Result: result, WhPerKm: whPerKm}})
	if a.bus != nil {
		a.bus.Publish(eventbus.CrowdSegmentUpdated{
			Cell:        cell,
			SampleCount: seg.Consumption.SampleCount,
			AvgWhPerKm:  seg.Consumption.AvgWhPerKm,
			Created:     res.Created,
		})
	}
}

// newSegment seeds an aggregate from its first sample.
func newSegment(cell, variantID string, obs Observation) model.CrowdSegment {
	seg := model.CrowdSegment{
		Cell:             cell,
		DistanceKm:       obs.DistanceKm,
		ElevationChangeM: obs.ElevationChangeM,
		RoadType:         obs.RoadType,
		SampleCount:      1,
		LastUpdated:      observedAt(obs),
		Consumption: model.AggregatedConsumption{
			AvgWhPerKm:  obs.WhPerKm,
			MinWhPerKm:  obs.WhPerKm,
			MaxWhPerKm:  obs.WhPerKm,
			SampleCount: 1,
		},
	}
	seg.Consumption.ByVariant = map[string]model.VariantStats{
		variantID: {AvgWhPerKm: obs.WhPerKm, SampleCount: 1},
	}
	seg.Consumption.ByTempBand = map[string]model.BandStats{
		model.TempBand(obs.TemperatureC): {AvgWhPerKm: obs.WhPerKm, SampleCount: 1},
	}
	seg.Consumption.ByRegenLevel = map[string]model.BandStats{
		strconv.Itoa(obs.RegenLevel): {AvgWhPerKm: obs.WhPerKm, SampleCount: 1},
	}
	seg.Confidence = Confidence(1, 0)
	upsertTrafficPattern(&seg, obs)
	return seg
}

// applyObservation folds one sample into the aggregate using the incremental
// mean formula newAvg = oldAvg + (x-oldAvg)/(n+1) and the matching Welford
// variance step.
func applyObservation(seg *model.CrowdSegment, variantID string, obs Observation) {
	c := &seg.Consumption

	oldAvg := c.AvgWhPerKm
	n := float64(c.SampleCount)
	c.AvgWhPerKm = oldAvg + (obs.WhPerKm-oldAvg)/(n+1)
	c.M2 += (obs.WhPerKm - oldAvg) * (obs.WhPerKm - c.AvgWhPerKm)
	c.SampleCount++

	if obs.WhPerKm < c.MinWhPerKm {
		c.MinWhPerKm = obs.WhPerKm
	}
	if obs.WhPerKm > c.MaxWhPerKm {
		c.MaxWhPerKm = obs.WhPerKm
	}

	if c.ByVariant == nil {
		c.ByVariant = map[string]model.VariantStats{}
	}
	vs := c.ByVariant[variantID]
	vs.AvgWhPerKm += (obs.WhPerKm - vs.AvgWhPerKm) / float64(vs.SampleCount+1)
	vs.SampleCount++
	c.ByVariant[variantID] = vs

	if c.ByTempBand == nil {
		c.ByTempBand = map[string]model.BandStats{}
	}
	band := model.TempBand(obs.TemperatureC)
	bs := c.ByTempBand[band]
	bs.AvgWhPerKm += (obs.WhPerKm - bs.AvgWhPerKm) / float64(bs.SampleCount+1)
	bs.SampleCount++
	c.ByTempBand[band] = bs

	if c.ByRegenLevel == nil {
		c.ByRegenLevel = map[string]model.BandStats{}
	}
	lvl := strconv.Itoa(obs.RegenLevel)
	rs := c.ByRegenLevel[lvl]
	rs.AvgWhPerKm += (obs.WhPerKm - rs.AvgWhPerKm) / float64(rs.SampleCount+1)
	rs.SampleCount++
	c.ByRegenLevel[lvl] = rs

	seg.SampleCount++
	seg.LastUpdated = observedAt(obs)
	seg.Confidence = Confidence(c.SampleCount, c.StdDev())
	upsertTrafficPattern(seg, obs)
}

// upsertTrafficPattern records the observed traffic level for the sample's
// local day-of-week and hour. The stored level is a simple running blend
// toward the latest observation.
func upsertTrafficPattern(seg *model.CrowdSegment, obs Observation) {
	if obs.TrafficLevel <= 0 {
		return
	}
	t := observedAt(obs)
	day, hour := int(t.Weekday()), t.Hour()
	for i, p := range seg.TrafficPatterns {
		if p.DayOfWeek == day && p.Hour == hour {
			seg.TrafficPatterns[i].Level = (p.Level + obs.TrafficLevel + 1) / 2
			return
		}
	}
	seg.TrafficPatterns = append(seg.TrafficPatterns, model.TrafficPattern{
		DayOfWeek: day, Hour: hour, Level: obs.TrafficLevel,
	})
}

func observedAt(obs Observation) time.Time {
	if obs.ObservedAt.IsZero() {
		return time.Now().UTC()
	}
	return obs.ObservedAt
}
