package migration

import (
	"github.com/framekart/commerce/internal/config"
	"github.com/framekart/commerce/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}
		return seed.EnsureAdmin(conn, cfg, log)
	}),
)
