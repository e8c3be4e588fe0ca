package srs

import "errors"

// Sentinel errors for the srs package.
// The algorithm itself never fails; these are raised by parsing and
// policy validation only.
var (
	ErrInvalidOutcome = errors.New("srs: invalid outcome")
	ErrInvalidPolicy  = errors.New("srs: invalid scheduling policy")
)
