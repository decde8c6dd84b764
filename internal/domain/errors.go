package domain

import "errors"

var (
	// ErrConfiguration - missing or invalid model/dictionary resources
	ErrConfiguration = errors.New("configuration error")
	// ErrEngineFault - unrecoverable recognition engine error during a decode step
	ErrEngineFault = errors.New("engine fault")
	// ErrContractViolation - operation invoked in an invalid state
	ErrContractViolation = errors.New("contract violation")
	// ErrNotFound - no item with such ID
	ErrNotFound = errors.New("not found")
)
