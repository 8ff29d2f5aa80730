package daphne

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexKey        = errors.New("invalid index key")
	ErrCycleDetected   = errors.New("cycle detected")
	ErrNoEngine        = errors.New("no engine configured")
	ErrEngineFailed    = errors.New("engine invocation failed")
	ErrResultMissing   = errors.New("result missing")
	ErrTransfer        = errors.New("transfer failed")
)
