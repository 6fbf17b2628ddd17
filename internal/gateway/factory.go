package gateway

import (
	"crypto/sha256"
	"encoding/hex"

	"hospital-booking/pkg/utils"

	"go.uber.org/zap"
)

// New selects the configured provider once at startup. Everything behind the
// returned interface is provider-neutral.
func New(cfg utils.GatewayConfig, log *zap.Logger) Gateway {
	switch cfg.Provider {
	case "cashfree":
		log.Info("Payment gateway initialized", zap.String("provider", "cashfree"))
		return newCashfree(cfg.CashfreeClientID, cfg.CashfreeClientSecret, cfg.CashfreeEnvironment, log)
	default:
		log.Info("Payment gateway initialized", zap.String("provider", "razorpay"))
		return newRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, log)
	}
}

// TruncateReceipt shortens a receipt reference to the provider's length limit
// while staying deterministic and collision-free across different inputs:
// the tail is replaced with a hash of the full reference, so two distinct
// bookings can never truncate to the same receipt.
func TruncateReceipt(receipt string, limit int) string {
	if len(receipt) <= limit {
		return receipt
	}

	sum := sha256.Sum256([]byte(receipt))
	suffix := hex.EncodeToString(sum[:])[:8]

	return receipt[:limit-9] + "_" + suffix
}
