package model

// ConsumptionBreakdown attributes predicted energy to its physical causes.
// All fields are Wh over the analyzed distance. RegenRecoveryWh is the energy
// recovered through regenerative braking and is reported separately rather
// than folded into a negative elevation cost; TotalWh already subtracts it.
type ConsumptionBreakdown struct {
	BaseWh        float64 `json:"baseWh"`
	ElevationWh   float64 `json:"elevationWh"`
	TemperatureWh float64 `json:"temperatureWh"`
	SpeedWh       float64 `json:"speedWh"`
	TrafficWh     float64 `json:"trafficWh"`
	HVACWh        float64 `json:"hvacWh"`
	AuxiliaryWh   float64 `json:"auxiliaryWh"`
	WindWh        float64 `json:"windWh"`

	RegenRecoveryWh float64 `json:"regenRecoveryWh"`
	TotalWh         float64 `json:"totalWh"`
}

// SegmentPrediction is the per-segment detail of a trip prediction.
type SegmentPrediction struct {
	Geohash       string  `json:"geohash"`
	DistanceKm    float64 `json:"distance"`
	WhPerKm       float64 `json:"estimatedWhPerKm"`
	Confidence    float64 `json:"confidence"`
	CrowdDataUsed bool    `json:"crowdDataUsed"`
	TrafficLevel  int     `json:"trafficLevel"`
}

// TripPrediction is the read-only result of one prediction call. It is
// produced fresh per call and never mutated afterwards.
type TripPrediction struct {
	EnergyWh           float64              `json:"estimatedEnergyWh"`
	WhPerKm            float64              `json:"whPerKm"`
	DistanceKm         float64              `json:"distanceKm"`
	EstimatedRangeKm   float64              `json:"estimatedRangeKm"`
	PredictedEndSoC    float64              `json:"predictedEndSoC"`
	RemainingRangeKm   float64              `json:"remainingRangeKm"`
	CanComplete        bool                 `json:"canComplete"`
	SafetyMarginKm     float64              `json:"safetyMarginKm"`
	Confidence         float64              `json:"confidence"`
	CrowdDataAvailable bool                 `json:"crowdDataAvailable"`
	Breakdown          ConsumptionBreakdown `json:"breakdown"`
	Segments           []SegmentPrediction  `json:"segments"`
}
