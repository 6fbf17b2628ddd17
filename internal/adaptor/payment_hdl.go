package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"hospital-booking/internal/dto/request"
	"hospital-booking/internal/usecase"
	"hospital-booking/pkg/utils"

	"go.uber.org/zap"
)

// webhook bodies are small JSON payloads; anything past this is not a
// legitimate gateway delivery.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	orders   usecase.OrderService
	webhooks usecase.WebhookService
	log      *zap.Logger
}

func NewPaymentHandler(orders usecase.OrderService, webhooks usecase.WebhookService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		orders:   orders,
		webhooks: webhooks,
		log:      log.With(zap.String("handler", "payment")),
	}
}

// CreateOrder handles POST /api/payments/create-order (protected)
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), userID.String(), &req)
	if err != nil {
		serviceError(w, h.log, err, "create order")
		return
	}

	utils.ResponseCreated(w, "success", order)
}

// CreateGuestOrder handles POST /api/payments/create-order-guest (public)
func (h *PaymentHandler) CreateGuestOrder(w http.ResponseWriter, r *http.Request) {
	var req request.GuestOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	order, err := h.orders.CreateGuestOrder(r.Context(), &req)
	if err != nil {
		serviceError(w, h.log, err, "create guest order")
		return
	}

	utils.ResponseCreated(w, "success", order)
}

// CreateHospitalOrder handles POST /api/payments/create-order-hospital (public)
func (h *PaymentHandler) CreateHospitalOrder(w http.ResponseWriter, r *http.Request) {
	var req request.HospitalOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	order, err := h.orders.CreateHospitalOrder(r.Context(), &req)
	if err != nil {
		serviceError(w, h.log, err, "create hospital order")
		return
	}

	utils.ResponseCreated(w, "success", order)
}

// Webhook handles POST /api/payments/webhook (public, signature-gated).
// The body must be read raw before any JSON handling: signatures are
// computed over the exact bytes the gateway sent.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Failed to read request body", nil)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	ack, err := h.webhooks.Process(r.Context(), rawBody, headers)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSignature) {
			utils.ResponseBadRequest(w, "Invalid webhook signature", nil)
			return
		}
		h.log.Error("Webhook processing failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "success", ack)
}

// GetMyPayments handles GET /api/payments/my-payments (protected)
func (h *PaymentHandler) GetMyPayments(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.orders.ListUserPayments(r.Context(), userID.String(), req)
	if err != nil {
		serviceError(w, h.log, err, "list payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// GatewayInfo handles GET /api/payments/gateway-info (public)
func (h *PaymentHandler) GatewayInfo(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "success", h.orders.GatewayInfo())
}
