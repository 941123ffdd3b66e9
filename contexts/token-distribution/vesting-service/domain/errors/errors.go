package errors

import "errors"

var (
	ErrScheduleNotFound       = errors.New("vesting schedule not found")
	ErrScheduleExists         = errors.New("vesting schedule already exists for round")
	ErrScheduleNotConfirmed   = errors.New("vesting schedule is not confirmed")
	ErrSchedulePaused         = errors.New("vesting schedule is paused")
	ErrScheduleNotPending     = errors.New("vesting schedule is not pending")
	ErrInvalidScheduleInput   = errors.New("invalid vesting schedule input")
	ErrEmptyCommitment        = errors.New("commitment has no allocations")
	ErrAllocationNotFound     = errors.New("vesting allocation not found")
	ErrAllocationOverdrawn    = errors.New("claim would exceed allocation tokens")
	ErrClaimNotFound          = errors.New("vesting claim not found")
	ErrClaimNotPending        = errors.New("vesting claim is not pending")
	ErrDuplicateClaim         = errors.New("claim already submitted for this period")
	ErrInvalidClaimAmount     = errors.New("claim amount must be positive")
	ErrAmountExceedsClaimable = errors.New("claim amount exceeds claimable tokens")
	ErrInvalidStateTransition = errors.New("invalid vesting state transition")
	ErrLockNotFound           = errors.New("liquidity lock not found")
	ErrLockNotPending         = errors.New("liquidity lock is not pending")
	ErrRoundNotFound          = errors.New("round not found")
)
