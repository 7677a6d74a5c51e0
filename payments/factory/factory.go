package factory

import (
	"fmt"

	"contesthub/config"
	"contesthub/payments"
	"contesthub/payments/stripecheckout"
	"contesthub/payments/stub"
)

// New picks the payment provider named by PAYMENT_PROVIDER
func New(cfg *config.Config) (payments.Provider, error) {
	switch cfg.PaymentProvider {
	case "stub":
		return stub.New(cfg.PaymentWebhookSecret, cfg.PublicURL), nil
	case "stripe":
		return stripecheckout.New(cfg.StripeSecretKey), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
