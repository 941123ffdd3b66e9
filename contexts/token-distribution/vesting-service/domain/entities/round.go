package entities

import "time"

type RoundResult string

const (
	RoundResultNone     RoundResult = "NONE"
	RoundResultSuccess  RoundResult = "SUCCESS"
	RoundResultFailed   RoundResult = "FAILED"
	RoundResultCanceled RoundResult = "CANCELED"
)

type RoundVestingStatus string

const (
	RoundVestingNone      RoundVestingStatus = "NONE"
	RoundVestingPending   RoundVestingStatus = "PENDING"
	RoundVestingConfirmed RoundVestingStatus = "CONFIRMED"
	RoundVestingFailed    RoundVestingStatus = "FAILED"
)

type RoundLockStatus string

const (
	RoundLockNone    RoundLockStatus = "NONE"
	RoundLockPending RoundLockStatus = "PENDING"
	RoundLockLocked  RoundLockStatus = "LOCKED"
	RoundLockFailed  RoundLockStatus = "FAILED"
)

// Round carries the gating fields this engine consumes but does not own.
// SuccessGatedAt is set exactly once, by a single conditional update.
type Round struct {
	ID             string
	Result         RoundResult
	VestingStatus  RoundVestingStatus
	LockStatus     RoundLockStatus
	SuccessGatedAt *time.Time
}

type LockStatus string

const (
	LockStatusPending LockStatus = "PENDING"
	LockStatusLocked  LockStatus = "LOCKED"
	LockStatusFailed  LockStatus = "FAILED"
)

// LiquidityLock bookkeeping is external; only its confirmation status is
// consumed here as a round-success gating input.
type LiquidityLock struct {
	ID          string
	RoundID     string
	Status      LockStatus
	TxReference string
	UpdatedAt   time.Time
}
