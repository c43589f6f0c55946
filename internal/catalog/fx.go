package catalog

import (
	"github.com/framekart/commerce/internal/catalog/repository"
	"github.com/framekart/commerce/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
