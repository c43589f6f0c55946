package domain

import "errors"

var (
	ErrSessionNotFound      = errors.New("session_not_found")
	ErrDuplicateSession     = errors.New("duplicate_session")
	ErrOrderAlreadyAttached = errors.New("order_already_attached")
	ErrProviderNotFound     = errors.New("provider_not_found")
	ErrProviderDisabled     = errors.New("provider_disabled")
	ErrInvalidSignature     = errors.New("invalid_signature")
	ErrInvalidPayload       = errors.New("invalid_payload")
	ErrInvalidEvent         = errors.New("invalid_event")
	ErrEventIgnored         = errors.New("event_ignored")
	ErrInvalidConfig        = errors.New("invalid_config")
	ErrUpstream             = errors.New("provider_unavailable")
)
