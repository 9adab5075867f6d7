package model

import "errors"

// Sentinel kinds for submission errors.
var (
	// ErrValidation marks a submission with an absent, null or unusable field.
	ErrValidation = errors.New("missing data")
)
