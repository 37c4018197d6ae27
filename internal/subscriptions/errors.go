package subscriptions

import "errors"

var (
	// ErrUnresolvedAccount means a webhook event could not be mapped to a
	// profile. The event must not be acknowledged so the provider retries
	// after manual resolution.
	ErrUnresolvedAccount = errors.New("subscriptions: could not resolve account for event")

	ErrSubscriptionNotFound = errors.New("subscriptions: subscription not found")
)
