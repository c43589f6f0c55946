// Package seed bootstraps the initial admin account.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/framekart/commerce/internal/auth/domain"
	"github.com/framekart/commerce/internal/auth/password"
	"github.com/framekart/commerce/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureAdmin creates the admin account named in configuration if it
// does not exist yet. Without configured credentials nothing is seeded;
// there is no built-in default password.
func EnsureAdmin(db *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		log.Warn("admin bootstrap skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.Where("email = ?", email).First(&user).Error
		if err == nil {
			if user.Role != authdomain.RoleAdmin {
				return tx.Model(&authdomain.User{}).
					Where("id = ?", user.ID).
					Update("role", authdomain.RoleAdmin).Error
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.AdminPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			Name:         "Store Admin",
			PasswordHash: &hashed,
			Role:         authdomain.RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		log.Info("admin account created", zap.String("email", email))
		return nil
	})
}
