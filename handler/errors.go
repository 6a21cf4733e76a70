package handler

import "errors"

// Domain errors surfaced by the admission, reconciliation and check-in
// flows. Handlers map these onto HTTP statuses.
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventNotPublished  = errors.New("event not published")
	ErrRegistrationClosed = errors.New("registration closed")
	ErrAlreadyRegistered  = errors.New("already registered")

	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyCancelled     = errors.New("registration already cancelled")

	ErrPaymentNotFound = errors.New("payment not found")

	ErrInvalidBadge   = errors.New("invalid badge")
	ErrBadgeNotFound  = errors.New("badge not found")
	ErrNotConfirmed   = errors.New("registration not confirmed")
	ErrEventCancelled = errors.New("event cancelled")
)
