package payments

import "errors"

var (
	// ErrPaymentNotFound is returned when no payment matches the lookup
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidMethod is returned for an unsupported payment method
	ErrInvalidMethod = errors.New("payment method must be pix or card")

	// ErrInvalidStatus is returned for an unknown payment status
	ErrInvalidStatus = errors.New("payment status must be pending, paid or failed")
)
