// Package trips exposes the trip sync endpoint.
package trips

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/core/tripsync"
)

// SyncRequest is the wire shape of a sync submission.
type SyncRequest struct {
	UserID string       `json:"userId"`
	Trips  []model.Trip `json:"trips"`
}

// SyncResponse is the wire shape of a sync result.
type SyncResponse struct {
	SyncedCount         int    `json:"syncedCount"`
	NewSegmentsCreated  int    `json:"newSegmentsCreated"`
	CrowdUpdatesApplied int    `json:"crowdUpdatesApplied"`
	SyncTimestamp       string `json:"syncTimestamp"`
}

// NewSyncHandler returns the POST /api/trips/sync handler.
func NewSyncHandler(pipeline *tripsync.Pipeline, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}

		res, err := pipeline.SyncTrips(r.Context(), req.UserID, req.Trips)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, model.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := SyncResponse{
			SyncedCount:         res.SyncedCount,
			NewSegmentsCreated:  res.NewSegmentsCreated,
			CrowdUpdatesApplied: res.CrowdUpdatesApplied,
			SyncTimestamp:       res.SyncTimestamp.Format(time.RFC3339),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Errorf("encode sync response: %v", err)
		}
	})
}
