package domain

import "errors"

var (
	ErrBuildingNotFound   = errors.New("building not found")
	ErrIntercomNotFound   = errors.New("intercom not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrNotAllowed         = errors.New("not allowed")
	ErrInvalidExpiry      = errors.New("expiry must be in the future")
	ErrInvalidMaxUses     = errors.New("max uses must be at least 1")
	ErrEmptySecret        = errors.New("empty secret")
)
