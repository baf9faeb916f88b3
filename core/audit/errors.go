package audit

import "errors"

// ErrPersistFailed wraps store failures on release.
var ErrPersistFailed = errors.New("failed to persist audit document")
