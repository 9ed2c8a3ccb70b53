package core

import "errors"

// Sentinel errors surfaced by the core. Callers should use errors.Is against
// these values rather than matching on message text.
var (
	ErrPanelAlreadyRegistered = errors.New("panel already registered")
	ErrPanelUnknown           = errors.New("panel unknown")
	ErrInvalidTransaction     = errors.New("invalid transaction")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrEmptyPending           = errors.New("pending pool is empty")
	ErrStaleTip               = errors.New("chain tip moved during mining")
	ErrChainInvalid           = errors.New("chain validation failed")
	ErrIoError                = errors.New("io error")
	ErrSnapshotCorrupt        = errors.New("snapshot corrupt")
	ErrMiningCancelled        = errors.New("mining cancelled")
)
