// Package common defines shared constants and sentinel errors used across
// the tripsync client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Gateway-level errors. Transport failures, non-2xx statuses and
	// non-JSON responses all collapse into ErrUnavailable; the caller's
	// remediation (queue and retry later) is the same for each of them.
	ErrUnavailable = errors.New("server unavailable")

	// Repository-level errors.
	ErrNothingStored = errors.New("nothing stored")
	ErrNotFound      = errors.New("not found")

	// Service-level errors.
	ErrValidation = errors.New("validation error")
)
