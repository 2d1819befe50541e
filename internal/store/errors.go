package store

import "errors"

// ErrNotFound indicates a task or user that the caller assumed was present
// is absent. Callers always act on records they just read, so this usually
// means the acting display is stale.
var ErrNotFound = errors.New("not found")
