package domain

import "errors"

// model guards, refused without touching state
var (
	ErrCapacityExceeded     = errors.New("portfolio already holds the maximum number of positions")
	ErrMinimumSizeViolation = errors.New("portfolio already holds the minimum number of positions")
	ErrIndexOutOfRange      = errors.New("position index out of range")
	ErrEmptySymbol          = errors.New("symbol cannot be empty")
)

var (
	ErrNotBalanced          = errors.New("portfolio weights must total 100% before analysis")
	ErrInvalidConfiguration = errors.New("invalid analysis configuration")
)

// remote failures, surfaced to the user as a dismissible notice
var (
	ErrTransportFailure = errors.New("analytics service unreachable")
	ErrRemote           = errors.New("analytics service returned an error")
)

var ErrUnknownTab = errors.New("unknown tab")
