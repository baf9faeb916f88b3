package notify

import "errors"

var (
	// ErrHubClosed is returned when publishing through a closed hub.
	ErrHubClosed = errors.New("notification hub is closed")

	// ErrNotificationNil is returned when publishing a nil notification.
	ErrNotificationNil = errors.New("notification cannot be nil")
)
