package handlers

import (
	"errors"
	"net/http"

	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
)

// SessionHandler exposes the pickup session lifecycle.
type SessionHandler struct {
	Manager *services.SessionManager
	Store   ports.SessionStore
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.RouteID <= 0 {
		writeError(w, r, http.StatusBadRequest, "route_id must be positive")
		return
	}
	if req.DriverID <= 0 {
		writeError(w, r, http.StatusBadRequest, "driver_id must be positive")
		return
	}

	date, err := domain.ParseServiceDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return
	}

	var startCoords *domain.Coordinates
	if req.StartLat != nil && req.StartLon != nil {
		startCoords = &domain.Coordinates{Lat: *req.StartLat, Lon: *req.StartLon}
	}

	session, err := h.Manager.Start(r.Context(), req.RouteID, req.DriverID, date, startCoords)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.NewSessionResponse(*session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	pickups, err := h.Store.ListPickups(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.SessionDetailResponse{
		Session: dto.NewSessionResponse(*session),
		Pickups: make([]dto.PickupResponse, 0, len(pickups)),
	}
	for _, p := range pickups {
		res.Pickups = append(res.Pickups, dto.NewPickupResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *SessionHandler) RecordPickup(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.RecordPickupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.StudentID <= 0 {
		writeError(w, r, http.StatusBadRequest, "student_id must be positive")
		return
	}

	status := domain.PickupStatus(req.Status)
	if !domain.ValidPickupStatus(status) {
		writeError(w, r, http.StatusBadRequest, "invalid status: expected pending, picked_up, absent, or no_show")
		return
	}

	pickup, err := h.Manager.RecordPickup(r.Context(), sessionID, req.StudentID, status, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPickupResponse(*pickup))
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req := dto.CompleteSessionRequest{}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	var endCoords *domain.Coordinates
	if req.EndLat != nil && req.EndLon != nil {
		endCoords = &domain.Coordinates{Lat: *req.EndLat, Lon: *req.EndLon}
	}

	session, err := h.Manager.Complete(r.Context(), sessionID, endCoords)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewSessionResponse(*session))
}

func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	session, err := h.Manager.Cancel(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewSessionResponse(*session))
}
