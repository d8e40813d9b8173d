package domain

import "errors"

// Profile and schedule errors
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnknownTimezone = errors.New("profile timezone is not a valid IANA identifier")
	ErrStoreWrite      = errors.New("backing store write failed")
	ErrStoreRead       = errors.New("backing store read failed")
)

// Authentication errors
var (
	ErrAuthFailed        = errors.New("sign-in failed")
	ErrMissingCredential = errors.New("missing OAuth credential")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenConsumed     = errors.New("token has already been used")
)
