// Package migration creates and evolves the database schema at startup.
package migration

import (
	authdomain "github.com/framekart/commerce/internal/auth/domain"
	cartdomain "github.com/framekart/commerce/internal/cart/domain"
	catalogdomain "github.com/framekart/commerce/internal/catalog/domain"
	coupondomain "github.com/framekart/commerce/internal/coupon/domain"
	orderdomain "github.com/framekart/commerce/internal/order/domain"
	paymentdomain "github.com/framekart/commerce/internal/payment/domain"
	"gorm.io/gorm"
)

// Run migrates every model owned by the application. Order matters only
// for readability; AutoMigrate resolves references itself.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&authdomain.User{},
		&catalogdomain.Product{},
		&cartdomain.CartItem{},
		&coupondomain.Coupon{},
		&paymentdomain.CheckoutSession{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.TrackingEvent{},
	)
}
