package domain

import "errors"

var (
	ErrInvalidThresholds      = errors.New("invalid thresholds")
	ErrCounterNotFound        = errors.New("counter not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)
