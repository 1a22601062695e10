package handlers

import (
	"net/http"

	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/ports"
)

// SchoolHandler exposes the active roster view used by dispatchers.
type SchoolHandler struct {
	Roster ports.RosterProvider
}

func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	schools, err := h.Roster.SchoolsWithActiveStudentCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListSchoolsResponse{
		Schools: make([]dto.SchoolResponse, 0, len(schools)),
	}
	for _, s := range schools {
		res.Schools = append(res.Schools, dto.NewSchoolResponse(s))
	}

	writeJSON(w, r, http.StatusOK, res)
}
