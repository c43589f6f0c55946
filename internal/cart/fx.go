package cart

import (
	"github.com/framekart/commerce/internal/cart/repository"
	"github.com/framekart/commerce/internal/cart/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cart.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
