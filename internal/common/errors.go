// Package common defines sentinel errors shared by the stores, the challenge
// workflow and the HTTP layer. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrAlreadyOwned      = errors.New("item already owned")
	ErrAttemptInProgress = errors.New("challenge attempt already in progress")

	// Ledger errors.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Workflow errors.
	ErrInvalidTransition  = errors.New("invalid workflow transition")
	ErrProofRequired      = errors.New("proof image required")
	ErrVerificationFailed = errors.New("verification could not be completed")

	// Remote collaborator errors.
	ErrOracleUnavailable = errors.New("verification oracle unavailable")

	// Daily reward errors.
	ErrCooldownActive = errors.New("reward cooldown active")
)
