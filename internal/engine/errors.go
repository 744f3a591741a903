package engine

import "errors"

var (
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrPoolNotInitialized     = errors.New("pool not initialized")
	ErrCurrencyNotSorted      = errors.New("currencies not sorted")
	ErrInvalidTickSpacing     = errors.New("invalid tick spacing")
	ErrHookNotRegistered      = errors.New("hook not registered")
	ErrLocked                 = errors.New("manager locked")
	ErrAlreadyUnlocked        = errors.New("manager already unlocked")
	ErrCurrencyNotSettled     = errors.New("currency not settled")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTickRange       = errors.New("invalid tick range")
	ErrInvalidPriceLimit      = errors.New("invalid price limit")
	ErrInsufficientLiquidity  = errors.New("insufficient position liquidity")
)
