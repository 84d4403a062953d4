// Package segments exposes read access to the crowd aggregates.
package segments

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anoop-jadhav-ui/RangeIQ/core/crowd"
	"github.com/anoop-jadhav-ui/RangeIQ/core/logger"
)

// NewHandler returns the GET /api/segments handler. Cells are passed as a
// comma-separated list; unknown cells are simply absent from the result.
func NewHandler(agg *crowd.Aggregator, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		raw := r.URL.Query().Get("cells")
		if raw == "" {
			http.Error(w, "cells query parameter is required", http.StatusBadRequest)
			return
		}
		cells := strings.Split(raw, ",")

		segs, err := agg.GetSegments(r.Context(), cells)
		if err != nil {
			http.Error(w, "crowd store unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(segs); err != nil {
			log.Errorf("encode segments: %v", err)
		}
	})
}
