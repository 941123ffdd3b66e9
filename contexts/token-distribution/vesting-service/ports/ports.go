package ports

import (
	"context"
	"time"

	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	"tokenvault/internal/shared/events"
)

// ScheduleRepository owns vesting schedule rows. Status changes go through
// conditional updates so overlapping workers cannot double-apply them.
type ScheduleRepository interface {
	CreateSchedule(
		ctx context.Context,
		schedule entities.VestingSchedule,
		allocations []entities.VestingAllocation,
	) error
	GetSchedule(ctx context.Context, scheduleID string) (entities.VestingSchedule, error)
	GetScheduleByRound(ctx context.Context, roundID string) (entities.VestingSchedule, error)
	SetScheduleTxReference(ctx context.Context, scheduleID string, txReference string) error
	// TransitionScheduleStatus applies from -> to only if the row still holds
	// from; returns ErrInvalidStateTransition otherwise.
	TransitionScheduleStatus(
		ctx context.Context,
		scheduleID string,
		from entities.ScheduleStatus,
		to entities.ScheduleStatus,
		at time.Time,
	) error
	ListPendingSchedules(ctx context.Context, limit int) ([]entities.VestingSchedule, error)
}

type AllocationRepository interface {
	GetAllocation(ctx context.Context, scheduleID string, walletAddress string) (entities.VestingAllocation, error)
	GetAllocationByID(ctx context.Context, allocationID string) (entities.VestingAllocation, error)
}

// ClaimRepository owns the claim ledger. CreateClaim must be unique-constrained
// on the idempotency key (ErrDuplicateClaim on conflict); ConfirmClaim applies
// the terminal transition and the allocation increments atomically, guarded on
// the claim still being PENDING and the allocation not being overdrawn.
type ClaimRepository interface {
	CreateClaim(ctx context.Context, claim entities.VestingClaim) error
	GetClaim(ctx context.Context, claimID string) (entities.VestingClaim, error)
	GetClaimByIdempotencyKey(ctx context.Context, key string) (entities.VestingClaim, error)
	SetClaimTxReference(ctx context.Context, claimID string, txReference string) error
	ListPendingClaims(ctx context.Context, limit int) ([]entities.VestingClaim, error)
	ListClaims(ctx context.Context, allocationID string) ([]entities.VestingClaim, error)
	ConfirmClaim(ctx context.Context, claim entities.VestingClaim, at time.Time) error
	FailClaim(ctx context.Context, claimID string, at time.Time) error
}

// LockRepository consumes liquidity-lock records for reconciliation; the
// bookkeeping itself is owned elsewhere.
type LockRepository interface {
	ListPendingLocks(ctx context.Context, limit int) ([]entities.LiquidityLock, error)
	ConfirmLock(ctx context.Context, lockID string, at time.Time) error
	FailLock(ctx context.Context, lockID string, at time.Time) error
}

// RoundRepository exposes the round gating fields. GateSuccess performs the
// single conditional write (all three conditions plus success_gated_at IS
// NULL) and reports whether this call was the one that landed it.
type RoundRepository interface {
	GetRound(ctx context.Context, roundID string) (entities.Round, error)
	SetVestingStatus(ctx context.Context, roundID string, status entities.RoundVestingStatus) error
	SetLockStatus(ctx context.Context, roundID string, status entities.RoundLockStatus) error
	GateSuccess(ctx context.Context, roundID string, at time.Time) (bool, error)
}

// CommitmentView is the read-only slice of the allocation commitment this
// module needs to seed and hand off claims.
type CommitmentView struct {
	VaultID         string
	RoundID         string
	ChainID         uint64
	Root            string
	TotalAllocation int64
	LeafCount       int
}

type AllocationLeafView struct {
	Address    string
	Allocation int64
}

type ProofView struct {
	Address    string
	Allocation int64
	Siblings   []string
}

// CommitmentReader is implemented by the allocation-service repository
// (read-only projection, no writes cross the module boundary).
type CommitmentReader interface {
	GetCommitment(ctx context.Context, vaultID string) (CommitmentView, error)
	ListLeaves(ctx context.Context, vaultID string) ([]AllocationLeafView, error)
	GetProof(ctx context.Context, vaultID string, address string) (ProofView, error)
}

// ClaimSubmission is the payload handed to the external ledger submitter.
type ClaimSubmission struct {
	VaultID       string
	Chain         string
	WalletAddress string
	Allocation    int64
	ClaimAmount   int64
	Proof         []string
}

type ScheduleSubmission struct {
	RoundID       string
	VaultID       string
	TgePercentage int
	CliffMonths   int
	VestingMonths int
	IntervalType  string
	TgeAt         time.Time
}

// LedgerSubmitter hands work to the external ledger and returns an opaque
// transaction reference. It may fail synchronously (rejected) or
// asynchronously (never confirms).
type LedgerSubmitter interface {
	SubmitClaim(ctx context.Context, submission ClaimSubmission) (string, error)
	SubmitSchedule(ctx context.Context, submission ScheduleSubmission) (string, error)
}

type VerificationStatus int

const (
	VerificationUnknown VerificationStatus = iota
	VerificationSucceeded
	VerificationFailed
)

// LedgerVerifier resolves a transaction reference to a tri-state outcome.
// Callers bound it with a timeout; an error or VerificationUnknown leaves the
// record PENDING for the next pass.
type LedgerVerifier interface {
	Check(ctx context.Context, txReference string) (VerificationStatus, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-module envelope contract.
type EventEnvelope = events.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
