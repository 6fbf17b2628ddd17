package usecase

import (
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/gateway"
	"hospital-booking/pkg/cache"
	"hospital-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking  BookingService
	Order    OrderService
	Webhook  WebhookService
	Hospital HospitalService
}

func NewService(repo *repository.Repository, config *utils.Config, gw gateway.Gateway, slots cache.SlotCache, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		Booking:  NewBookingService(repo, slots, log),
		Order:    NewOrderService(repo, gw, config.Gateway, log),
		Webhook:  NewWebhookService(repo, gw, config.Gateway, notifier, log),
		Hospital: NewHospitalService(repo, log),
	}
}
