package coupon

import (
	"github.com/framekart/commerce/internal/coupon/repository"
	"github.com/framekart/commerce/internal/coupon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
