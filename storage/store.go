package storage

import apperrors "github.com/jrsteele09/retail-console/internal/errors"

// Well known keys
const (
	KeyToken   = "token"
	KeyTenant  = "tenant"
	KeyCookies = "cookies"
)

// ErrNotFound is returned by Get when the key has never been set or was removed
var ErrNotFound = apperrors.ErrNotFound

// Store is a synchronous string key/value store that survives process restarts.
type Store interface {
	// Get returns ErrNotFound when key is missing
	Get(key string) (string, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}
