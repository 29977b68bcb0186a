package hardhatkit

import "errors"

// Sentinel errors
var (
	ErrMissingInput = errors.New("hardhatkit: required input missing")
	ErrInvalidInput = errors.New("hardhatkit: invalid input")

	ErrConfigWrite  = errors.New("hardhatkit: config write failed")
	ErrBackupFailed = errors.New("hardhatkit: backup failed")

	ErrArtifactNotFound    = errors.New("hardhatkit: contract artifact not found")
	ErrFunctionNotFound    = errors.New("hardhatkit: function not found in ABI")
	ErrUnsupportedArgType  = errors.New("hardhatkit: unsupported argument type")
	ErrMissingSigner       = errors.New("hardhatkit: private key required for state-changing call")
	ErrTransactionReverted = errors.New("hardhatkit: transaction reverted")

	ErrRecordPersist = errors.New("hardhatkit: deployment record persist failed")
)
