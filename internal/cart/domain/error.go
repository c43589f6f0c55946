package domain

import "errors"

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrCartEmpty    = errors.New("cart is empty")
)
