package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrClassifierUnavailable is returned when the remote classification service cannot be reached
	ErrClassifierUnavailable = errors.New("classification service unavailable")

	// ErrClassifierResponse is returned when the classification service answers with a bad status or payload
	ErrClassifierResponse = errors.New("classification service returned an unusable response")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSurfaceOpen is returned when a decision surface is already open
	ErrSurfaceOpen = errors.New("a decision surface is already open")

	// ErrSurfaceClosed is returned when acting on a decision surface that is no longer open
	ErrSurfaceClosed = errors.New("decision surface is closed")

	// ErrNoSearchInput is returned when the host page has no search field to drive
	ErrNoSearchInput = errors.New("no search input found on host page")
)
