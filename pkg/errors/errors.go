package errors

import "errors"

// ----------------- cache ------------------
var (
	ErrCacheMiss = errors.New("cache miss")
)

// ----------------- auth ------------------
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotFound = errors.New("token not configured")
)
