package usecase

import (
	"context"
	"errors"
	"sync"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/gateway"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrMockStore   = errors.New("mock store error")
	ErrMockGateway = errors.New("mock gateway error")
)

// MockBookingRepo implements repository.BookingRepository for testing.
type MockBookingRepo struct {
	mu       sync.Mutex
	Bookings map[uuid.UUID]*entity.Booking

	InsertErr   error
	InsertCalls int
}

func NewMockBookingRepo() *MockBookingRepo {
	return &MockBookingRepo{Bookings: make(map[uuid.UUID]*entity.Booking)}
}

func (m *MockBookingRepo) CheckAndInsert(ctx context.Context, b *entity.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	for _, existing := range m.Bookings {
		if existing.DoctorID == b.DoctorID &&
			existing.Date.Equal(b.Date) &&
			existing.TimeSlot == b.TimeSlot &&
			existing.Kind == b.Kind &&
			existing.Status != entity.BookingStatusCancelled {
			return repository.ErrSlotConflict
		}
	}
	m.Bookings[b.ID] = b
	return nil
}

func (m *MockBookingRepo) FindByID(ctx context.Context, kind entity.BookingKind, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.Bookings[id]
	if !ok || b.Kind != kind {
		return nil, repository.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *MockBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, kind entity.BookingKind, limit, offset int) ([]*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Booking
	for _, b := range m.Bookings {
		if b.UserID == userID && b.Kind == kind {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID, kind entity.BookingKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, b := range m.Bookings {
		if b.UserID == userID && b.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *MockBookingRepo) FindByDoctorID(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Booking
	for _, b := range m.Bookings {
		if b.DoctorID == doctorID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockBookingRepo) FindBookedSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var slots []string
	for _, b := range m.Bookings {
		if b.DoctorID == doctorID && b.Date.Format("2006-01-02") == date &&
			b.Kind == entity.BookingKindAppointment && b.Status != entity.BookingStatusCancelled {
			slots = append(slots, b.TimeSlot)
		}
	}
	return slots, nil
}

func (m *MockBookingRepo) TransitionStatus(ctx context.Context, kind entity.BookingKind, id uuid.UUID, from, to entity.BookingStatus) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.Bookings[id]
	if !ok || b.Kind != kind {
		return nil, repository.ErrBookingNotFound
	}
	if b.Status != from {
		return nil, repository.ErrInvalidTransition
	}
	b.Status = to
	copied := *b
	return &copied, nil
}

// MockPaymentRepo implements repository.PaymentRepository for testing.
type MockPaymentRepo struct {
	mu       sync.Mutex
	Payments map[uuid.UUID]*entity.Payment

	InsertCalls     int
	TransitionCalls int
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{Payments: make(map[uuid.UUID]*entity.Payment)}
}

func (m *MockPaymentRepo) Insert(ctx context.Context, p *entity.Payment) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	for _, existing := range m.Payments {
		if existing.IdempotencyKey == p.IdempotencyKey {
			copied := *existing
			if existing.GatewayOrderID != "" {
				return &copied, nil
			}
			return &copied, repository.ErrDuplicateIdemKey
		}
	}
	copied := *p
	m.Payments[p.ID] = &copied
	result := copied
	return &result, nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.Payments[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *MockPaymentRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Payments {
		if p.IdempotencyKey == key {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Payments {
		if p.GatewayOrderID == orderID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Payment
	for _, p := range m.Payments {
		if p.UserID != nil && *p.UserID == userID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) TransitionByOrderID(ctx context.Context, orderID string, to entity.PaymentStatus, gatewayPaymentID *string, failureReason *string) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TransitionCalls++
	for _, p := range m.Payments {
		if p.GatewayOrderID != orderID {
			continue
		}
		if p.Status != entity.PaymentStatusPending {
			copied := *p
			return &copied, repository.ErrAlreadyTerminal
		}
		p.Status = to
		if gatewayPaymentID != nil {
			p.GatewayPaymentID = gatewayPaymentID
		}
		if failureReason != nil {
			p.FailureReason = failureReason
		}
		copied := *p
		return &copied, nil
	}
	return nil, repository.ErrPaymentNotFound
}

// MockWebhookRepo implements repository.WebhookEventRepository for testing.
type MockWebhookRepo struct {
	mu     sync.Mutex
	Events map[string]*entity.WebhookEvent

	MarkProcessedCalls int
}

func NewMockWebhookRepo() *MockWebhookRepo {
	return &MockWebhookRepo{Events: make(map[string]*entity.WebhookEvent)}
}

func (m *MockWebhookRepo) Insert(ctx context.Context, e *entity.WebhookEvent) (*entity.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.Events[e.EventID]; ok {
		copied := *existing
		return &copied, repository.ErrDuplicateWebhookID
	}
	copied := *e
	m.Events[e.EventID] = &copied
	result := copied
	return &result, nil
}

func (m *MockWebhookRepo) FindByEventID(ctx context.Context, eventID string) (*entity.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.Events[eventID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (m *MockWebhookRepo) MarkProcessed(ctx context.Context, eventID string, paymentID *uuid.UUID, procErr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MarkProcessedCalls++
	e, ok := m.Events[eventID]
	if !ok {
		return repository.ErrWebhookEventMissing
	}
	e.Processed = true
	if paymentID != nil {
		e.PaymentID = paymentID
	}
	e.ProcessingError = procErr
	return nil
}

// MockHospitalRepo implements repository.HospitalRepository for testing.
type MockHospitalRepo struct {
	mu        sync.Mutex
	Hospitals map[uuid.UUID]*entity.Hospital
}

func NewMockHospitalRepo() *MockHospitalRepo {
	return &MockHospitalRepo{Hospitals: make(map[uuid.UUID]*entity.Hospital)}
}

func (m *MockHospitalRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.Hospitals[id]
	if !ok {
		return nil, repository.ErrHospitalNotFound
	}
	copied := *h
	return &copied, nil
}

func (m *MockHospitalRepo) FindApprovedByCity(ctx context.Context, city string, limit, offset int) ([]*entity.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Hospital
	for _, h := range m.Hospitals {
		if h.Status == entity.HospitalStatusApproved {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockHospitalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.HospitalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.Hospitals[id]
	if !ok {
		return repository.ErrHospitalNotFound
	}
	h.Status = status
	return nil
}

func (m *MockHospitalRepo) SetLinkedAccount(ctx context.Context, id uuid.UUID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.Hospitals[id]
	if !ok {
		return repository.ErrHospitalNotFound
	}
	h.LinkedAccountID = &accountID
	return nil
}

// MockDoctorRepo implements repository.DoctorRepository for testing.
type MockDoctorRepo struct {
	mu      sync.Mutex
	Doctors map[uuid.UUID]*entity.Doctor
}

func NewMockDoctorRepo() *MockDoctorRepo {
	return &MockDoctorRepo{Doctors: make(map[uuid.UUID]*entity.Doctor)}
}

func (m *MockDoctorRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.Doctors[id]
	if !ok {
		return nil, repository.ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *MockDoctorRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.Doctors[id]
	if !ok || !d.IsActive {
		return nil, repository.ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *MockDoctorRepo) FindByHospitalID(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*entity.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Doctor
	for _, d := range m.Doctors {
		if d.HospitalID == hospitalID && d.IsActive {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MockUserRepo implements repository.UserRepository for testing.
type MockUserRepo struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*entity.User

	CreateCalls int
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{Users: make(map[uuid.UUID]*entity.User)}
}

func (m *MockUserRepo) Create(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	copied := *u
	m.Users[u.ID] = &copied
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepo) FindByMobile(ctx context.Context, mobile string, role entity.UserRole) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Mobile == mobile && u.Role == role {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

// MockSessionRepo implements repository.SessionRepository for testing.
type MockSessionRepo struct{}

func (m *MockSessionRepo) Create(ctx context.Context, s *entity.Session) error { return nil }
func (m *MockSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	return nil, nil
}
func (m *MockSessionRepo) Revoke(ctx context.Context, token string) error               { return nil }
func (m *MockSessionRepo) RevokeAllUserSessions(ctx context.Context, id uuid.UUID) error { return nil }
func (m *MockSessionRepo) CleanExpiredSessions(ctx context.Context) error               { return nil }

// MockGateway implements gateway.Gateway for testing.
type MockGateway struct {
	mu sync.Mutex

	CreateOrderFunc func(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
	DetailsFunc     func(ctx context.Context, paymentID string) (*gateway.PaymentDetails, error)
	TransferFunc    func(ctx context.Context, paymentID, accountID string, amountMinor int64) (*gateway.Transfer, error)
	VerifyResult    bool
	ParsedEvent     *gateway.WebhookEvent
	ParseErr        error

	CreateOrderCalls int
	TransferCalls    int
	LastTransferMinor int64
}

func NewMockGateway() *MockGateway {
	return &MockGateway{VerifyResult: true}
}

func (m *MockGateway) Name() string { return "mockpay" }

func (m *MockGateway) CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateOrderCalls++
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return &gateway.Order{
		OrderID:      "order_" + uuid.NewString()[:8],
		Amount:       req.Amount,
		Currency:     req.Currency,
		Gateway:      "mockpay",
		ClientConfig: map[string]string{"key": "test_key"},
	}, nil
}

func (m *MockGateway) VerifyWebhookSignature(rawBody []byte, signature string, headers map[string]string) bool {
	return m.VerifyResult
}

func (m *MockGateway) SignatureHeader() (string, string) {
	return "X-Mock-Signature", ""
}

func (m *MockGateway) ParseWebhookEvent(rawBody []byte) (*gateway.WebhookEvent, error) {
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	return m.ParsedEvent, nil
}

func (m *MockGateway) GetPaymentDetails(ctx context.Context, paymentID string) (*gateway.PaymentDetails, error) {
	if m.DetailsFunc != nil {
		return m.DetailsFunc(ctx, paymentID)
	}
	return &gateway.PaymentDetails{PaymentID: paymentID, Captured: true}, nil
}

func (m *MockGateway) CreateRefund(ctx context.Context, paymentID string, amount float64, reason string) (*gateway.Refund, error) {
	return &gateway.Refund{RefundID: "rfnd_test", PaymentID: paymentID}, nil
}

func (m *MockGateway) CreateTransfer(ctx context.Context, paymentID, accountID string, amountMinor int64, notes map[string]string) (*gateway.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TransferCalls++
	m.LastTransferMinor = amountMinor
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, paymentID, accountID, amountMinor)
	}
	return &gateway.Transfer{TransferID: "trf_test", AccountID: accountID, AmountMinor: amountMinor}, nil
}

// MockSlotCache implements cache.SlotCache for testing.
type MockSlotCache struct {
	mu    sync.Mutex
	Data  map[string][]string
	InvalidateCalls int
}

func NewMockSlotCache() *MockSlotCache {
	return &MockSlotCache{Data: make(map[string][]string)}
}

func (m *MockSlotCache) Get(ctx context.Context, doctorID uuid.UUID, date string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slots, ok := m.Data[doctorID.String()+":"+date]
	return slots, ok
}

func (m *MockSlotCache) Set(ctx context.Context, doctorID uuid.UUID, date string, slots []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Data[doctorID.String()+":"+date] = slots
}

func (m *MockSlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID, date string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InvalidateCalls++
	delete(m.Data, doctorID.String()+":"+date)
}

// MockNotifier records confirmation notifications.
type MockNotifier struct {
	mu    sync.Mutex
	Calls int
}

func (m *MockNotifier) BookingConfirmed(ctx context.Context, b *entity.Booking, p *entity.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
}
