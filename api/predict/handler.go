// Package predict exposes the trip prediction endpoint.
package predict

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	corepredict "github.com/anoop-jadhav-ui/RangeIQ/core/predict"
)

// Request is the wire shape of a prediction request.
type Request struct {
	Origin      model.Coordinate   `json:"origin"`
	Destination model.Coordinate   `json:"destination"`
	Waypoints   []model.Coordinate `json:"waypoints,omitempty"`

	VariantID       string  `json:"variantId"`
	SoC             float64 `json:"soc"`
	BatteryHealth   float64 `json:"batteryHealth"`
	RegenLevel      int     `json:"regenLevel"`
	HVACOn          bool    `json:"hvacOn"`
	HVACMode        string  `json:"hvacMode"`
	HVACTemperature float64 `json:"hvacTemperature"`
	PayloadKg       float64 `json:"payload"`
	TirePressure    float64 `json:"tirePressure"`

	Weather       *model.WeatherSnapshot `json:"weather,omitempty"`
	Traffic       string                 `json:"traffic,omitempty"`
	AvgSpeedKmh   float64                `json:"avgSpeed,omitempty"`
	DepartureTime string                 `json:"departureTime,omitempty"`
}

// Response is the wire shape of a prediction result.
type Response struct {
	EstimatedEnergyWh  int                        `json:"estimatedEnergyWh"`
	EstimatedRangeKm   int                        `json:"estimatedRangeKm"`
	PredictedEndSoC    float64                    `json:"predictedEndSoC"`
	CanComplete        bool                       `json:"canComplete"`
	Confidence         float64                    `json:"confidence"`
	Breakdown          model.ConsumptionBreakdown `json:"breakdown"`
	CrowdDataAvailable bool                       `json:"crowdDataAvailable"`
	Segments           []model.SegmentPrediction  `json:"segments"`
}

// NewHandler returns the POST /api/predict handler.
func NewHandler(predictor *corepredict.Predictor, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}

		coreReq, err := ToCoreRequest(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pred, err := predictor.Predict(r.Context(), coreReq)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, model.ErrInvalidInput) || errors.Is(err, model.ErrInvalidRoute) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(toResponse(pred)); err != nil {
			log.Errorf("encode prediction: %v", err)
		}
	})
}

func ToCoreRequest(req Request) (corepredict.Request, error) {
	state := model.NewVehicleState(req.VariantID)
	if req.SoC > 0 {
		state.SetSoC(req.SoC)
	}
	if req.BatteryHealth > 0 {
		state.SetBatteryHealth(req.BatteryHealth)
	}
	state.SetRegenLevel(req.RegenLevel)
	state.HVACOn = req.HVACOn
	state.HVACMode = model.ParseHVACMode(req.HVACMode)
	state.HVACTargetC = req.HVACTemperature
	if req.PayloadKg > 0 {
		state.SetPayload(req.PayloadKg)
	}
	if req.TirePressure > 0 {
		state.SetTirePressure(req.TirePressure)
	}

	out := corepredict.Request{
		Origin:      req.Origin,
		Destination: req.Destination,
		Waypoints:   req.Waypoints,
		State:       state,
		Weather:     req.Weather,
		Traffic:     model.ParseTrafficDensity(req.Traffic),
		AvgSpeedKmh: req.AvgSpeedKmh,
	}
	if req.DepartureTime != "" {
		dep, err := time.Parse(time.RFC3339, req.DepartureTime)
		if err != nil {
			return corepredict.Request{}, errors.New("departureTime must be ISO-8601")
		}
		out.Departure = dep
	}
	return out, nil
}

func toResponse(pred model.TripPrediction) Response {
	return Response{
		EstimatedEnergyWh:  int(math.Round(pred.EnergyWh)),
		EstimatedRangeKm:   int(math.Round(pred.EstimatedRangeKm)),
		PredictedEndSoC:    pred.PredictedEndSoC,
		CanComplete:        pred.CanComplete,
		Confidence:         pred.Confidence,
		Breakdown:          pred.Breakdown,
		CrowdDataAvailable: pred.CrowdDataAvailable,
		Segments:           pred.Segments,
	}
}
