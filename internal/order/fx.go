package order

import (
	"github.com/framekart/commerce/internal/order/repository"
	"github.com/framekart/commerce/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(service.NewMaterializer),
)
