package commands

import (
	"context"
	"errors"
	"strings"

	application "tokenvault/contexts/token-distribution/vesting-service/application"
	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/domain/services"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

type SubmitClaimCommand struct {
	ScheduleID    string
	UserID        string
	WalletAddress string
	Chain         string
	ClaimAmount   int64
}

// SubmitClaimResult carries the claim record plus a marker for replays. A
// duplicate submission within the same idempotency window returns the
// original record unchanged instead of an error.
type SubmitClaimResult struct {
	Claim     entities.VestingClaim
	Duplicate bool
}

// SubmitClaim records a claim attempt against the ledger. At most one claim
// per allocation enters the ledger per idempotency window; the window is the
// UTC calendar day of submission. A FAILED claim burns its window.
func (uc UseCase) SubmitClaim(
	ctx context.Context,
	cmd SubmitClaimCommand,
) (SubmitClaimResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	scheduleID := strings.TrimSpace(cmd.ScheduleID)
	walletAddress := strings.ToLower(strings.TrimSpace(cmd.WalletAddress))
	userID := strings.TrimSpace(cmd.UserID)
	chain := strings.TrimSpace(cmd.Chain)

	if scheduleID == "" || walletAddress == "" || chain == "" {
		return SubmitClaimResult{}, domainerrors.ErrInvalidClaimAmount
	}
	if cmd.ClaimAmount <= 0 {
		logger.Warn("claim rejected non-positive amount",
			"event", "vesting_claim_invalid_amount",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"wallet_address", walletAddress,
			"claim_amount", cmd.ClaimAmount,
		)
		return SubmitClaimResult{}, domainerrors.ErrInvalidClaimAmount
	}
	if userID == "" {
		userID = walletAddress
	}

	schedule, err := uc.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return SubmitClaimResult{}, err
	}
	switch schedule.Status {
	case entities.ScheduleStatusConfirmed:
	case entities.ScheduleStatusPaused:
		return SubmitClaimResult{}, domainerrors.ErrSchedulePaused
	default:
		return SubmitClaimResult{}, domainerrors.ErrScheduleNotConfirmed
	}

	allocation, err := uc.Allocations.GetAllocation(ctx, scheduleID, walletAddress)
	if err != nil {
		return SubmitClaimResult{}, err
	}

	now := uc.now()
	claimable := services.Claimable(schedule, allocation.AllocationTokens, allocation.ClaimedTokens, now)
	if cmd.ClaimAmount > claimable {
		logger.Warn("claim rejected amount exceeds claimable",
			"event", "vesting_claim_exceeds_claimable",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"allocation_id", allocation.ID,
			"claim_amount", cmd.ClaimAmount,
			"claimable", claimable,
		)
		return SubmitClaimResult{}, domainerrors.ErrAmountExceedsClaimable
	}

	claimID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return SubmitClaimResult{}, err
	}
	claim := entities.VestingClaim{
		ID:             claimID,
		AllocationID:   allocation.ID,
		ScheduleID:     scheduleID,
		UserID:         userID,
		WalletAddress:  walletAddress,
		Chain:          chain,
		ClaimAmount:    cmd.ClaimAmount,
		Status:         entities.ClaimStatusPending,
		IdempotencyKey: allocation.ID + ":" + now.Format("2006-01-02"),
		RequestedAt:    now,
	}

	if err := uc.Claims.CreateClaim(ctx, claim); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateClaim) {
			existing, lookupErr := uc.Claims.GetClaimByIdempotencyKey(ctx, claim.IdempotencyKey)
			if lookupErr != nil {
				return SubmitClaimResult{}, lookupErr
			}
			logger.Info("claim replay returned existing record",
				"event", "vesting_claim_duplicate",
				"module", "token-distribution/vesting-service",
				"layer", "application",
				"claim_id", existing.ID,
				"allocation_id", allocation.ID,
				"idempotency_key", claim.IdempotencyKey,
			)
			return SubmitClaimResult{Claim: existing, Duplicate: true}, nil
		}
		return SubmitClaimResult{}, err
	}

	proof, err := uc.Commitments.GetProof(ctx, schedule.VaultID, walletAddress)
	if err != nil {
		logger.Error("claim proof lookup failed",
			"event", "vesting_claim_proof_lookup_failed",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"claim_id", claimID,
			"vault_id", schedule.VaultID,
			"wallet_address", walletAddress,
			"error", err.Error(),
		)
		if failErr := uc.Claims.FailClaim(ctx, claimID, uc.now()); failErr != nil {
			logger.Error("claim fail mark failed",
				"event", "vesting_claim_fail_mark_failed",
				"module", "token-distribution/vesting-service",
				"layer", "application",
				"claim_id", claimID,
				"error", failErr.Error(),
			)
		}
		return SubmitClaimResult{}, err
	}

	txReference, err := uc.Ledger.SubmitClaim(ctx, ports.ClaimSubmission{
		VaultID:       schedule.VaultID,
		Chain:         chain,
		WalletAddress: walletAddress,
		Allocation:    allocation.AllocationTokens,
		ClaimAmount:   cmd.ClaimAmount,
		Proof:         proof.Siblings,
	})
	if err != nil {
		// Synchronous rejection: the FAILED record stays in the ledger and
		// burns the idempotency window.
		if failErr := uc.Claims.FailClaim(ctx, claimID, uc.now()); failErr != nil {
			logger.Error("claim fail mark failed",
				"event", "vesting_claim_fail_mark_failed",
				"module", "token-distribution/vesting-service",
				"layer", "application",
				"claim_id", claimID,
				"error", failErr.Error(),
			)
		}
		logger.Warn("claim ledger submission rejected",
			"event", "vesting_claim_submit_rejected",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"claim_id", claimID,
			"allocation_id", allocation.ID,
			"error", err.Error(),
		)
		return SubmitClaimResult{}, err
	}
	if err := uc.Claims.SetClaimTxReference(ctx, claimID, txReference); err != nil {
		return SubmitClaimResult{}, err
	}
	claim.TxReference = txReference

	logger.Info("claim submitted",
		"event", "vesting_claim_submitted",
		"module", "token-distribution/vesting-service",
		"layer", "application",
		"claim_id", claimID,
		"schedule_id", scheduleID,
		"allocation_id", allocation.ID,
		"wallet_address", walletAddress,
		"claim_amount", cmd.ClaimAmount,
		"tx_reference", txReference,
	)
	return SubmitClaimResult{Claim: claim}, nil
}
