package adaptor

import (
	"errors"
	"net/http"

	"hospital-booking/internal/usecase"
	"hospital-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Payment  *PaymentHandler
	Hospital *HospitalHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Payment:  NewPaymentHandler(service.Order, service.Webhook, log),
		Hospital: NewHospitalHandler(service.Hospital, log),
	}
}

// serviceError translates the service error taxonomy to HTTP responses.
// Unmatched errors are logged and surfaced as an opaque 500.
func serviceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" failed validation", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed, not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrConflict):
		log.Info(operation+" conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrHospitalNotApproved),
		errors.Is(err, usecase.ErrDoctorNotAffiliated):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error())

	case errors.Is(err, usecase.ErrGatewayRejected):
		log.Warn(operation+" rejected by gateway", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error())

	case errors.Is(err, usecase.ErrGatewayUnavailable):
		log.Error(operation+" failed, gateway unavailable", zap.Error(err))
		utils.ResponseBadGateway(w, err.Error())

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
