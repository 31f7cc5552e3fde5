package service

import "errors"

// Outcomes the route layer turns into HTTP status codes. Every authentication
// failure is ErrUnauthorized, whatever check rejected it.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid request")
)
