package response

import "hospital-booking/internal/data/entity"

type HospitalResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	City            string  `json:"city"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Status          string  `json:"status"`
	PayoutsEnabled  bool    `json:"payouts_enabled"`
}

func HospitalToResponse(h *entity.Hospital) HospitalResponse {
	return HospitalResponse{
		ID:             h.ID.String(),
		Name:           h.Name,
		City:           h.City,
		Address:        h.Address,
		Phone:          h.Phone,
		Status:         string(h.Status),
		PayoutsEnabled: h.LinkedAccountID != nil && *h.LinkedAccountID != "",
	}
}

type DoctorResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	HospitalID string  `json:"hospital_id"`
	Specialty  *string `json:"specialty,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

func DoctorToResponse(d *entity.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		HospitalID: d.HospitalID.String(),
		Specialty:  d.Specialty,
		Phone:      d.Phone,
	}
}
