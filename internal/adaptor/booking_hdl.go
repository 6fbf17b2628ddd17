package adaptor

import (
	"encoding/json"
	"net/http"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/dto/request"
	"hospital-booking/internal/usecase"
	"hospital-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateAppointment handles POST /api/appointments (protected)
func (h *BookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateAppointment(r.Context(), userID.String(), &req)
	if err != nil {
		serviceError(w, h.log, err, "create appointment")
		return
	}

	utils.ResponseCreated(w, "success", booking)
}

// CreateGuestAppointment handles POST /api/appointments/guest (public)
func (h *BookingHandler) CreateGuestAppointment(w http.ResponseWriter, r *http.Request) {
	var req request.GuestAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateGuestAppointment(r.Context(), &req)
	if err != nil {
		serviceError(w, h.log, err, "create guest appointment")
		return
	}

	utils.ResponseCreated(w, "success", booking)
}

// CreateOperation handles POST /api/operations (protected)
func (h *BookingHandler) CreateOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateOperation(r.Context(), userID.String(), &req)
	if err != nil {
		serviceError(w, h.log, err, "create operation")
		return
	}

	utils.ResponseCreated(w, "success", booking)
}

// UpdateAppointmentStatus handles PUT /api/appointments/{id}/status (protected)
func (h *BookingHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, entity.BookingKindAppointment)
}

// UpdateOperationStatus handles PUT /api/operations/{id}/status (protected)
func (h *BookingHandler) UpdateOperationStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, entity.BookingKindOperation)
}

func (h *BookingHandler) updateStatus(w http.ResponseWriter, r *http.Request, kind entity.BookingKind) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	var req request.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	bookingID := chi.URLParam(r, "id")
	booking, err := h.service.UpdateStatus(r.Context(), userID.String(), role, kind, bookingID, req.Action)
	if err != nil {
		serviceError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetMyAppointments handles GET /api/appointments/my (protected)
func (h *BookingHandler) GetMyAppointments(w http.ResponseWriter, r *http.Request) {
	h.getUserBookings(w, r, entity.BookingKindAppointment)
}

// GetMyOperations handles GET /api/operations/my (protected)
func (h *BookingHandler) GetMyOperations(w http.ResponseWriter, r *http.Request) {
	h.getUserBookings(w, r, entity.BookingKindOperation)
}

func (h *BookingHandler) getUserBookings(w http.ResponseWriter, r *http.Request, kind entity.BookingKind) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.GetUserBookings(r.Context(), userID.String(), kind, req)
	if err != nil {
		serviceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetAvailableSlots handles GET /api/doctors/{id}/slots?date=YYYY-MM-DD (public)
func (h *BookingHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.ResponseBadRequest(w, "date query parameter is required", nil)
		return
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		serviceError(w, h.log, err, "get available slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}
