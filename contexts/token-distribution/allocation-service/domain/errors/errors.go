package errors

import "errors"

var (
	ErrCommitmentNotFound       = errors.New("merkle commitment not found")
	ErrCommitmentExists         = errors.New("merkle commitment already exists for vault")
	ErrProofNotFound            = errors.New("merkle proof not found for address")
	ErrZeroTotalRaised          = errors.New("total raised is zero")
	ErrNoConfirmedContributions = errors.New("no confirmed contributions for round")
	ErrInvalidFinalizeInput     = errors.New("invalid finalize input")
	ErrInvalidVerifyInput       = errors.New("invalid verify input")
)
