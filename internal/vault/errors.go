package vault

import "errors"

// Error kinds. Call sites wrap these with context; match with errors.Is.
var (
	ErrNotFound      = errors.New("vault: path not found")
	ErrInvalidPath   = errors.New("vault: invalid path")
	ErrInvalidConfig = errors.New("vault: invalid config")
	ErrLockFailure   = errors.New("vault: state lock poisoned")
)
