package domain

import "errors"

var (
	ErrOrderNotFound     = errors.New("order_not_found")
	ErrInvalidStatus     = errors.New("invalid_order_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)
