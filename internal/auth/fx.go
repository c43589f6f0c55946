package auth

import (
	"github.com/framekart/commerce/internal/auth/repository"
	"github.com/framekart/commerce/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
