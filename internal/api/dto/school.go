package dto

import "pickup-route-service/internal/domain"

type SchoolResponse struct {
	SchoolID     int64    `json:"school_id"`
	Name         string   `json:"name"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Dismissal    string   `json:"dismissal"`
	StudentCount int      `json:"student_count"`
}

type ListSchoolsResponse struct {
	Schools []SchoolResponse `json:"schools"`
}

func NewSchoolResponse(s domain.School) SchoolResponse {
	res := SchoolResponse{
		SchoolID:     s.SchoolID,
		Name:         s.Name,
		Dismissal:    s.Dismissal.String(),
		StudentCount: s.StudentCount,
	}
	if s.Coords != nil {
		res.Lat = &s.Coords.Lat
		res.Lon = &s.Coords.Lon
	}
	return res
}
