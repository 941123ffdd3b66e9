package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	application "tokenvault/contexts/token-distribution/vesting-service/application"
	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

// ClaimReconciler sweeps PENDING claims and resolves each against the ledger.
// Every step is idempotent: a crash mid-sweep leaves rows PENDING and the
// next pass picks them up again.
type ClaimReconciler struct {
	Claims       ports.ClaimRepository
	Verifier     ports.LedgerVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	BatchSize    int
	CheckTimeout time.Duration
	Logger       *slog.Logger
}

func (j ClaimReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}
	timeout := j.CheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pending, err := j.Claims.ListPendingClaims(ctx, limit)
	if err != nil {
		logger.Error("claim reconciliation list failed",
			"event", "vesting_claim_reconcile_list_failed",
			"module", "token-distribution/vesting-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var confirmed, failed, unresolved int
	for _, claim := range pending {
		if claim.TxReference == "" {
			// No ledger hand-off happened; nothing to verify yet.
			unresolved++
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		status, err := j.Verifier.Check(checkCtx, claim.TxReference)
		cancel()
		if err != nil {
			// Timeout or transport error is indistinguishable from a slow
			// ledger; the claim stays PENDING.
			logger.Warn("claim verification inconclusive",
				"event", "vesting_claim_verify_inconclusive",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"claim_id", claim.ID,
				"tx_reference", claim.TxReference,
				"error", err.Error(),
			)
			unresolved++
			continue
		}

		now := j.now()
		switch status {
		case ports.VerificationSucceeded:
			if err := j.Claims.ConfirmClaim(ctx, claim, now); err != nil {
				if errors.Is(err, domainerrors.ErrClaimNotPending) {
					// Another sweep got there first; only the winning
					// transition appends the settlement event.
					logger.Warn("claim confirm transition skipped",
						"event", "vesting_claim_confirm_skipped",
						"module", "token-distribution/vesting-service",
						"layer", "worker",
						"claim_id", claim.ID,
					)
					continue
				}
				logger.Error("claim confirmation failed",
					"event", "vesting_claim_confirm_failed",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"claim_id", claim.ID,
					"error", err.Error(),
				)
				return err
			}
			if err := j.appendConfirmed(ctx, claim, now); err != nil {
				return err
			}
			confirmed++
		case ports.VerificationFailed:
			if err := j.Claims.FailClaim(ctx, claim.ID, now); err != nil {
				if errors.Is(err, domainerrors.ErrClaimNotPending) {
					logger.Warn("claim failure transition skipped",
						"event", "vesting_claim_fail_skipped",
						"module", "token-distribution/vesting-service",
						"layer", "worker",
						"claim_id", claim.ID,
					)
					continue
				}
				logger.Error("claim failure mark failed",
					"event", "vesting_claim_fail_mark_failed",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"claim_id", claim.ID,
					"error", err.Error(),
				)
				return err
			}
			failed++
		default:
			unresolved++
		}
	}

	if confirmed > 0 || failed > 0 {
		logger.Info("claim reconciliation sweep completed",
			"event", "vesting_claim_reconcile_completed",
			"module", "token-distribution/vesting-service",
			"layer", "worker",
			"confirmed_count", confirmed,
			"failed_count", failed,
			"unresolved_count", unresolved,
		)
	}
	return nil
}

// appendConfirmed records the settlement event. The confirm transition above
// is conditional, so a racing sweep can never reach this append twice for the
// same claim.
func (j ClaimReconciler) appendConfirmed(
	ctx context.Context,
	claim entities.VestingClaim,
	settledAt time.Time,
) error {
	if j.Outbox == nil || j.IDGen == nil {
		return nil
	}
	eventID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"claim_id":      claim.ID,
		"allocation_id": claim.AllocationID,
		"schedule_id":   claim.ScheduleID,
		"claim_amount":  claim.ClaimAmount,
		"settled_at":    settledAt,
	})
	if err != nil {
		return err
	}
	return j.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "token-distribution.claim.confirmed",
		OccurredAt:       settledAt,
		SourceService:    "vesting-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "schedule_id",
		PartitionKey:     claim.ScheduleID,
		Data:             payload,
	})
}

func (j ClaimReconciler) now() time.Time {
	if j.Clock == nil {
		return time.Now().UTC()
	}
	return j.Clock.Now().UTC()
}
