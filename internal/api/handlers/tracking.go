package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
)

// TrackHandler exposes fix ingestion and the per-session live view.
type TrackHandler struct {
	Tracker *services.Tracker
	Store   ports.SessionStore
	Fixes   ports.FixLog
	Live    ports.LiveCache // optional
}

func (h *TrackHandler) IngestFix(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestFixRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.DriverID <= 0 || req.SessionID <= 0 {
		writeError(w, r, http.StatusBadRequest, "driver_id and session_id must be positive")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		writeError(w, r, http.StatusBadRequest, "coordinates out of range")
		return
	}

	fix := domain.LocationFix{
		DriverID:  req.DriverID,
		SessionID: req.SessionID,
		Coords:    domain.Coordinates{Lat: req.Lat, Lon: req.Lon},
		SpeedMPH:  req.SpeedMPH,
		Bearing:   req.Bearing,
		AccuracyM: req.AccuracyM,
	}
	if req.RecordedAt != nil {
		fix.RecordedAt = *req.RecordedAt
	} else {
		fix.RecordedAt = h.Tracker.Now()
	}

	result, err := h.Tracker.Ingest(r.Context(), fix)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.IngestFixResponse{
		Recorded:      result.Recorded,
		Evaluated:     result.Evaluated,
		DistanceMiles: result.DistanceMiles,
	}
	if result.NextStop != nil {
		stop := dto.NewStopResponse(*result.NextStop)
		res.NextStop = &stop
	}
	if result.Alert != nil {
		alert := dto.NewAlertResponse(*result.Alert)
		res.Alert = &alert
	}

	writeJSON(w, r, http.StatusAccepted, res)
}

// Track assembles the live view for one session: latest fix, next stop,
// and recent alerts. The cache is best-effort; the fix log answers when
// the cache is cold or absent.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	session, err := h.Store.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "session not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	res := dto.TrackResponse{
		SessionID:    sessionID,
		Status:       string(session.Status),
		RecentAlerts: []dto.AlertResponse{},
	}

	var latest *domain.LocationFix
	if h.Live != nil {
		latest, err = h.Live.LatestFix(r.Context(), sessionID)
		if err != nil {
			log.Warn().Err(err).Int64("session_id", sessionID).Msg("Live cache read failed")
			latest = nil
		}
	}
	if latest == nil {
		latest, err = h.Fixes.Latest(r.Context(), session.DriverID, sessionID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if latest != nil {
		fix := dto.NewFixResponse(*latest)
		res.LatestFix = &fix
	}

	next, err := h.Tracker.NextStop(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if next != nil {
		stop := dto.NewStopResponse(*next)
		res.NextStop = &stop
	}

	if h.Live != nil {
		alerts, err := h.Live.RecentAlerts(r.Context(), sessionID)
		if err != nil {
			log.Warn().Err(err).Int64("session_id", sessionID).Msg("Live cache read failed")
		} else {
			for _, a := range alerts {
				res.RecentAlerts = append(res.RecentAlerts, dto.NewAlertResponse(a))
			}
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}
