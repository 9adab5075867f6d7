package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrNoStore    = errors.New("no store configured")
)
