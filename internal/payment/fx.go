package payment

import (
	"github.com/framekart/commerce/internal/config"
	"github.com/framekart/commerce/internal/payment/adapters"
	"github.com/framekart/commerce/internal/payment/adapters/razorpay"
	"github.com/framekart/commerce/internal/payment/adapters/stripe"
	"github.com/framekart/commerce/internal/payment/domain"
	"github.com/framekart/commerce/internal/payment/repository"
	paymentservice "github.com/framekart/commerce/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.New),
	fx.Provide(NewRegistry),
	fx.Provide(paymentservice.NewReplayGuard),
	fx.Provide(paymentservice.New),
)

// NewRegistry builds the gateway registry from whatever providers are
// configured. Unconfigured providers are skipped so a deployment can run
// with a single gateway.
func NewRegistry(cfg config.Config, log *zap.Logger) *adapters.Registry {
	var gateways []domain.Gateway

	if gateway, err := stripe.New(cfg.Stripe); err == nil {
		gateways = append(gateways, gateway)
	} else {
		log.Warn("stripe gateway not configured", zap.Error(err))
	}

	if gateway, err := razorpay.New(cfg.Razorpay); err == nil {
		gateways = append(gateways, gateway)
	} else {
		log.Warn("razorpay gateway not configured", zap.Error(err))
	}

	return adapters.NewRegistry(gateways...)
}
