package adaptor

import (
	"encoding/json"
	"net/http"

	"hospital-booking/internal/dto/request"
	"hospital-booking/internal/usecase"
	"hospital-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HospitalHandler struct {
	service usecase.HospitalService
	log     *zap.Logger
}

func NewHospitalHandler(service usecase.HospitalService, log *zap.Logger) *HospitalHandler {
	return &HospitalHandler{
		service: service,
		log:     log.With(zap.String("handler", "hospital")),
	}
}

// UpdateStatus handles PUT /api/admin/hospitals/{id}/status (admin)
func (h *HospitalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateHospitalStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hospital, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Action)
	if err != nil {
		serviceError(w, h.log, err, "update hospital status")
		return
	}

	utils.ResponseSuccess(w, "success", hospital)
}

// LinkAccount handles PUT /api/admin/hospitals/{id}/account (admin)
func (h *HospitalHandler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	var req request.LinkHospitalAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hospital, err := h.service.LinkAccount(r.Context(), chi.URLParam(r, "id"), req.AccountID)
	if err != nil {
		serviceError(w, h.log, err, "link hospital account")
		return
	}

	utils.ResponseSuccess(w, "success", hospital)
}

// List handles GET /api/hospitals?city= (public)
func (h *HospitalHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	hospitals, err := h.service.ListByCity(r.Context(), query.Get("city"), req)
	if err != nil {
		serviceError(w, h.log, err, "list hospitals")
		return
	}

	utils.ResponseSuccess(w, "success", hospitals)
}

// ListDoctors handles GET /api/hospitals/{id}/doctors (public)
func (h *HospitalHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	doctors, err := h.service.ListDoctors(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		serviceError(w, h.log, err, "list hospital doctors")
		return
	}

	utils.ResponseSuccess(w, "success", doctors)
}
