package handlers

import (
	"errors"
	"net/http"

	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
)

// RouteHandler exposes route optimization and the committed route plans.
type RouteHandler struct {
	Roster ports.RosterProvider
	Repo   ports.RouteRepository
}

// Optimize runs a stateless optimization pass over the active roster and
// returns evaluated proposals. Nothing is persisted; operators review the
// proposals and commit the ones they accept.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	constraints := domain.Constraints{
		VehicleCount:    req.VehicleCount,
		SeatsPerVehicle: req.SeatsPerVehicle,
		MaxRouteMinutes: req.MaxRouteMinutes,
		BufferMinutes:   req.BufferMinutes,
		StartAddress:    req.StartAddress,
		EndAddress:      req.EndAddress,
	}
	if req.DayStart != "" {
		start, err := domain.ParseClock(req.DayStart)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid day_start: expected HH:MM")
			return
		}
		constraints.DayStart = start
	}

	eval := services.DefaultEvalConfig()
	if req.AverageSpeedMPH != nil {
		if *req.AverageSpeedMPH <= 0 {
			writeError(w, r, http.StatusBadRequest, "average_speed_mph must be positive")
			return
		}
		eval.AverageSpeedMPH = *req.AverageSpeedMPH
	}
	if req.ArrivalLeadMinutes != nil {
		if *req.ArrivalLeadMinutes < 0 {
			writeError(w, r, http.StatusBadRequest, "arrival_lead_minutes must not be negative")
			return
		}
		eval.ArrivalLeadMinutes = *req.ArrivalLeadMinutes
	}

	result, err := services.OptimizeRoutes(r.Context(), services.OptimizeRequest{
		Constraints: constraints,
		Tuning:      services.DefaultClusterTuning(),
		Eval:        eval,
	}, h.Roster)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.OptimizeResponse{
		Proposals: make([]dto.ProposalResponse, 0, len(result.Proposals)),
		Warnings:  dto.NewWarningResponses(result.Warnings),
	}
	for _, p := range result.Proposals {
		res.Proposals = append(res.Proposals, dto.ProposalResponse{
			Route:   dto.NewRouteResponse(p.Route),
			Metrics: dto.NewRouteMetricsResponse(p.Metrics),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Commit persists accepted route proposals. Stops only need the school id,
// order, and arrival estimate; school details are re-joined on read.
func (h *RouteHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req dto.CommitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.Routes) == 0 {
		writeError(w, r, http.StatusBadRequest, "routes must not be empty")
		return
	}

	routes := make([]domain.Route, 0, len(req.Routes))
	for _, rr := range req.Routes {
		if rr.Name == "" {
			writeError(w, r, http.StatusBadRequest, "route name must not be empty")
			return
		}
		if len(rr.Stops) == 0 {
			writeError(w, r, http.StatusBadRequest, "route "+rr.Name+" has no stops")
			return
		}

		route := domain.Route{Name: rr.Name, DriverID: rr.DriverID}
		for _, stop := range rr.Stops {
			arrival, err := domain.ParseClock(stop.EstimatedArrival)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "invalid estimated_arrival: expected HH:MM")
				return
			}
			route.Stops = append(route.Stops, domain.Stop{
				School:           domain.School{SchoolID: stop.SchoolID},
				OrderIndex:       stop.OrderIndex,
				EstimatedArrival: arrival,
			})
		}
		routes = append(routes, route)
	}

	saved, err := h.Repo.SaveRoutes(r.Context(), routes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(saved))}
	for _, route := range saved {
		res.Routes = append(res.Routes, dto.NewRouteResponse(route))
	}

	writeJSON(w, r, http.StatusCreated, res)
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Repo.ListRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, route := range routes {
		res.Routes = append(res.Routes, dto.NewRouteResponse(route))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	routeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	route, err := h.Repo.GetRoute(r.Context(), routeID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "route not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(*route))
}
