package domain

import "errors"

// Error kinds. Adapters wrap their causes with one of these so callers can
// branch with errors.Is without knowing which backend failed.
var (
	// ErrValidation marks a single CSV row that could not be turned into a User.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration marks missing connection or bucket settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrStore marks a failed object fetch, batch write, or lock acquisition.
	ErrStore = errors.New("store error")
	// ErrNotification marks a failed webhook delivery.
	ErrNotification = errors.New("notification error")
)
