package session

import "errors"

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")
