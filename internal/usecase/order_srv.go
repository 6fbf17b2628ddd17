package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/dto/request"
	"hospital-booking/internal/dto/response"
	"hospital-booking/internal/gateway"
	"hospital-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCurrency = "INR"

type OrderService interface {
	// CreateOrder opens a gateway order for a booking owned by userID. A
	// retry inside the idempotency window returns the already created
	// order instead of opening a second one.
	CreateOrder(ctx context.Context, userID string, req *request.CreateOrderRequest) (*response.OrderResponse, error)

	// CreateGuestOrder is the unauthenticated variant: ownership is not
	// checked and the payer contact details are forwarded to the gateway.
	CreateGuestOrder(ctx context.Context, req *request.GuestOrderRequest) (*response.OrderResponse, error)

	// CreateHospitalOrder opens a registration-fee order for a hospital
	// onboarding plan; it is not tied to any booking.
	CreateHospitalOrder(ctx context.Context, req *request.HospitalOrderRequest) (*response.OrderResponse, error)

	ListUserPayments(ctx context.Context, userID string, req *request.PaginatedRequest) ([]response.PaymentResponse, error)
	GatewayInfo() *response.GatewayInfoResponse
}

// paymentMetadata is the JSON blob stored on a payment row. ClientConfig is
// kept so an idempotent retry can hand the frontend the same checkout bundle
// without a second gateway call.
type paymentMetadata struct {
	PlanName      string            `json:"plan_name,omitempty"`
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	ClientConfig  map[string]string `json:"client_config,omitempty"`
}

type orderService struct {
	repo *repository.Repository
	gw   gateway.Gateway
	cfg  utils.GatewayConfig
	log  *zap.Logger
}

func NewOrderService(repo *repository.Repository, gw gateway.Gateway, cfg utils.GatewayConfig, log *zap.Logger) OrderService {
	return &orderService{
		repo: repo,
		gw:   gw,
		cfg:  cfg,
		log:  log.With(zap.String("service", "order")),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req *request.CreateOrderRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, userID)
	}

	booking, err := s.resolveBooking(ctx, req.BookingKind, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userUUID {
		return nil, fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}

	return s.openBookingOrder(ctx, userUUID, booking, req.Amount, req.Currency, "", "", "")
}

func (s *orderService) CreateGuestOrder(ctx context.Context, req *request.GuestOrderRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.resolveBooking(ctx, req.BookingKind, req.BookingID)
	if err != nil {
		return nil, err
	}

	return s.openBookingOrder(ctx, booking.UserID, booking, req.Amount, req.Currency,
		req.CustomerName, req.CustomerPhone, req.CustomerEmail)
}

func (s *orderService) resolveBooking(ctx context.Context, kind, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, entity.BookingKind(kind), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, bookingID)
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking is cancelled", ErrConflict)
	}

	return booking, nil
}

func (s *orderService) openBookingOrder(ctx context.Context, userID uuid.UUID, booking *entity.Booking, amount float64, currency, custName, custPhone, custEmail string) (*response.OrderResponse, error) {
	if currency == "" {
		currency = defaultCurrency
	}
	currency = strings.ToUpper(currency)

	key := utils.GenerateIdempotencyKey(userID, string(booking.Kind), booking.ID, time.Now(), s.cfg.IdempotencyWindow)

	if existing, err := s.repo.Payment.FindByIdempotencyKey(ctx, key); err != nil {
		return nil, fmt.Errorf("look up idempotency key: %w", err)
	} else if existing != nil && existing.GatewayOrderID != "" {
		s.log.Info("Reusing existing order for retried request",
			zap.String("payment_id", existing.ID.String()),
			zap.String("gateway_order_id", existing.GatewayOrderID),
		)
		return s.orderResponseFrom(existing), nil
	}

	order, err := s.createGatewayOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  utils.GenerateReceipt(string(booking.Kind), booking.ID),
		Notes: map[string]string{
			"booking_kind": string(booking.Kind),
			"booking_id":   booking.ID.String(),
		},
		CustomerName:  custName,
		CustomerPhone: custPhone,
		CustomerEmail: custEmail,
	})
	if err != nil {
		return nil, err
	}

	meta := paymentMetadata{
		CustomerName:  custName,
		CustomerPhone: custPhone,
		ClientConfig:  order.ClientConfig,
	}

	kind := booking.Kind
	bookingID := booking.ID
	payment := &entity.Payment{
		Base:           newBase(),
		UserID:         &userID,
		BookingKind:    &kind,
		BookingID:      &bookingID,
		Amount:         amount,
		Currency:       currency,
		Gateway:        s.gw.Name(),
		IdempotencyKey: key,
		GatewayOrderID: order.OrderID,
		Status:         entity.PaymentStatusPending,
	}
	payment.Metadata = marshalMetadata(meta)

	return s.persistOrder(ctx, payment, order)
}

func (s *orderService) CreateHospitalOrder(ctx context.Context, req *request.HospitalOrderRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	currency = strings.ToUpper(currency)

	key := hospitalIdempotencyKey(req.PlanName, req.CustomerPhone, time.Now(), s.cfg.IdempotencyWindow)

	if existing, err := s.repo.Payment.FindByIdempotencyKey(ctx, key); err != nil {
		return nil, fmt.Errorf("look up idempotency key: %w", err)
	} else if existing != nil && existing.GatewayOrderID != "" {
		s.log.Info("Reusing existing hospital order for retried request",
			zap.String("payment_id", existing.ID.String()),
		)
		return s.orderResponseFrom(existing), nil
	}

	receipt := fmt.Sprintf("HOSP_REG_%s_%d", req.PlanName, time.Now().Unix())

	order, err := s.createGatewayOrder(ctx, gateway.OrderRequest{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"purpose":   "hospital_registration",
			"plan_name": req.PlanName,
		},
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		return nil, err
	}

	payment := &entity.Payment{
		Base:           newBase(),
		Amount:         req.Amount,
		Currency:       currency,
		Gateway:        s.gw.Name(),
		IdempotencyKey: key,
		GatewayOrderID: order.OrderID,
		Status:         entity.PaymentStatusPending,
	}
	payment.Metadata = marshalMetadata(paymentMetadata{
		PlanName:      req.PlanName,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ClientConfig:  order.ClientConfig,
	})

	return s.persistOrder(ctx, payment, order)
}

// createGatewayOrder calls the provider and maps its failures onto the
// service error taxonomy. Nothing is persisted on failure.
func (s *orderService) createGatewayOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	order, err := s.gw.CreateOrder(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrGatewayUnavailable):
			s.log.Error("Gateway unavailable during order creation", zap.Error(err))
			return nil, fmt.Errorf("%w: %s", ErrGatewayUnavailable, s.gw.Name())
		case errors.Is(err, gateway.ErrGatewayRejected):
			s.log.Warn("Gateway rejected order", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrGatewayRejected, err)
		default:
			return nil, fmt.Errorf("create gateway order: %w", err)
		}
	}
	return order, nil
}

func (s *orderService) persistOrder(ctx context.Context, payment *entity.Payment, order *gateway.Order) (*response.OrderResponse, error) {
	stored, err := s.repo.Payment.Insert(ctx, payment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateIdemKey) {
			return nil, fmt.Errorf("%w: a payment for this request is already in flight", ErrConflict)
		}
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	if stored.GatewayOrderID != order.OrderID {
		// A concurrent retry won the insert race; its order is the one the
		// client should pay against. Ours stays unpaid at the provider.
		s.log.Warn("Dropping duplicate gateway order after insert race",
			zap.String("kept_order_id", stored.GatewayOrderID),
			zap.String("dropped_order_id", order.OrderID),
		)
		return s.orderResponseFrom(stored), nil
	}

	s.log.Info("Order created",
		zap.String("payment_id", stored.ID.String()),
		zap.String("gateway_order_id", stored.GatewayOrderID),
		zap.String("gateway", stored.Gateway),
		zap.Float64("amount", stored.Amount),
	)

	return &response.OrderResponse{
		PaymentID:    stored.ID.String(),
		OrderID:      stored.GatewayOrderID,
		Amount:       stored.Amount,
		Currency:     stored.Currency,
		Gateway:      stored.Gateway,
		ClientConfig: order.ClientConfig,
	}, nil
}

// orderResponseFrom rebuilds the checkout response from a stored payment,
// restoring the client config captured at creation time.
func (s *orderService) orderResponseFrom(p *entity.Payment) *response.OrderResponse {
	resp := &response.OrderResponse{
		PaymentID: p.ID.String(),
		OrderID:   p.GatewayOrderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Gateway:   p.Gateway,
	}
	if p.Metadata != nil {
		var meta paymentMetadata
		if err := json.Unmarshal([]byte(*p.Metadata), &meta); err == nil {
			resp.ClientConfig = meta.ClientConfig
		}
	}
	return resp
}

func (s *orderService) ListUserPayments(ctx context.Context, userID string, req *request.PaginatedRequest) ([]response.PaymentResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, userID)
	}

	payments, err := s.repo.Payment.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list user payments: %w", err)
	}

	items := make([]response.PaymentResponse, len(payments))
	for i, p := range payments {
		items[i] = response.PaymentToResponse(p)
	}
	return items, nil
}

func (s *orderService) GatewayInfo() *response.GatewayInfoResponse {
	return &response.GatewayInfoResponse{Gateway: s.gw.Name()}
}

func newBase() entity.Base {
	now := time.Now()
	return entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func marshalMetadata(meta paymentMetadata) *string {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}

func hospitalIdempotencyKey(plan, phone string, at time.Time, window time.Duration) string {
	bucket := int64(0)
	if secs := int64(window.Seconds()); secs > 0 {
		bucket = at.Unix() / secs
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", plan, phone, bucket)))
	return fmt.Sprintf("hosp_%s_%d_%s", plan, bucket, hex.EncodeToString(sum[:])[:8])
}
