package http

import (
	"fmt"
	"net/http"

	"viaggi/internal/core"
)

type activeTrip struct {
	TripID string `json:"tripId"`
}

// handleGetActiveTrip returns the remembered trip. A remembered id whose
// trip no longer exists reads as empty.
func (s *Server) handleGetActiveTrip(w http.ResponseWriter, r *http.Request) {
	id, err := s.session.ActiveTripID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a := s.engine.Snapshot(); a != nil && id != "" && a.TripByID(id) < 0 {
		id = ""
	}
	writeJSON(w, http.StatusOK, activeTrip{TripID: id})
}

// handlePutActiveTrip remembers a trip. An empty id clears the slot.
func (s *Server) handlePutActiveTrip(w http.ResponseWriter, r *http.Request) {
	var req activeTrip
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TripID != "" {
		a := s.engine.Snapshot()
		if a == nil {
			writeError(w, r, core.ErrNotLoaded)
			return
		}
		if a.TripByID(req.TripID) < 0 {
			writeError(w, r, fmt.Errorf("%s: %w", req.TripID, core.ErrTripNotFound))
			return
		}
	}
	if err := s.session.SetActiveTripID(r.Context(), req.TripID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
