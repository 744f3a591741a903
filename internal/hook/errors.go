package hook

import "errors"

var (
	ErrInvalidTimeRange       = errors.New("invalid time range")
	ErrInvalidTickRange       = errors.New("invalid tick range")
	ErrInvalidEpochSize       = errors.New("invalid epoch size")
	ErrInvalidPayload         = errors.New("invalid initialization payload")
	ErrBeforeEndTime          = errors.New("before end time")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrAlreadyInitialized     = errors.New("schedule already initialized")
	ErrUnknownPool            = errors.New("unknown pool")
	ErrReconciliationDisabled = errors.New("reconciliation disabled")
	ErrReentrant              = errors.New("reentrant call")
	ErrLocked                 = errors.New("no unlock session")
	ErrPoolNotCreated         = errors.New("pool not created by manager")
)
