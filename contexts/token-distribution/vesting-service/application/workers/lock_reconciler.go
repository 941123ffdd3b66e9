package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "tokenvault/contexts/token-distribution/vesting-service/application"
	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

// LockReconciler resolves PENDING liquidity locks against the ledger, mirrors
// the outcome onto the round's lock status, and attempts the round success
// gate after each confirmation.
type LockReconciler struct {
	Locks        ports.LockRepository
	Rounds       ports.RoundRepository
	Verifier     ports.LedgerVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	BatchSize    int
	CheckTimeout time.Duration
	Logger       *slog.Logger
}

func (j LockReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}
	timeout := j.CheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pending, err := j.Locks.ListPendingLocks(ctx, limit)
	if err != nil {
		logger.Error("lock reconciliation list failed",
			"event", "vesting_lock_reconcile_list_failed",
			"module", "token-distribution/vesting-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, lock := range pending {
		if lock.TxReference == "" {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		status, err := j.Verifier.Check(checkCtx, lock.TxReference)
		cancel()
		if err != nil {
			logger.Warn("lock verification inconclusive",
				"event", "vesting_lock_verify_inconclusive",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"lock_id", lock.ID,
				"tx_reference", lock.TxReference,
				"error", err.Error(),
			)
			continue
		}

		now := j.now()
		switch status {
		case ports.VerificationSucceeded:
			if err := j.Locks.ConfirmLock(ctx, lock.ID, now); err != nil {
				logger.Warn("lock confirm skipped",
					"event", "vesting_lock_confirm_skipped",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"lock_id", lock.ID,
					"error", err.Error(),
				)
			}
			if err := j.Rounds.SetLockStatus(ctx, lock.RoundID, entities.RoundLockLocked); err != nil {
				logger.Error("round lock status update failed",
					"event", "vesting_round_lock_update_failed",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"round_id", lock.RoundID,
					"error", err.Error(),
				)
				return err
			}
			if err := j.tryGate(ctx, lock.RoundID); err != nil {
				return err
			}
			logger.Info("liquidity lock confirmed",
				"event", "vesting_lock_confirmed",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"lock_id", lock.ID,
				"round_id", lock.RoundID,
			)
		case ports.VerificationFailed:
			if err := j.Locks.FailLock(ctx, lock.ID, now); err != nil {
				logger.Warn("lock fail skipped",
					"event", "vesting_lock_fail_skipped",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"lock_id", lock.ID,
					"error", err.Error(),
				)
				continue
			}
			if err := j.Rounds.SetLockStatus(ctx, lock.RoundID, entities.RoundLockFailed); err != nil {
				return err
			}
			logger.Warn("liquidity lock failed on ledger",
				"event", "vesting_lock_failed",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"lock_id", lock.ID,
				"round_id", lock.RoundID,
			)
		}
	}
	return nil
}

func (j LockReconciler) tryGate(ctx context.Context, roundID string) error {
	logger := application.ResolveLogger(j.Logger)
	now := j.now()
	fired, err := j.Rounds.GateSuccess(ctx, roundID, now)
	if err != nil {
		logger.Error("round success gate attempt failed",
			"event", "vesting_round_gate_failed",
			"module", "token-distribution/vesting-service",
			"layer", "worker",
			"round_id", roundID,
			"error", err.Error(),
		)
		return err
	}
	if !fired {
		return nil
	}

	logger.Info("round success gate fired",
		"event", "vesting_round_gate_fired",
		"module", "token-distribution/vesting-service",
		"layer", "worker",
		"round_id", roundID,
	)
	if j.Outbox == nil {
		return nil
	}
	eventID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"round_id": roundID,
		"gated_at": now,
	})
	if err != nil {
		return err
	}
	return j.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "token-distribution.round.succeeded",
		OccurredAt:       now,
		SourceService:    "vesting-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "round_id",
		PartitionKey:     roundID,
		Data:             payload,
	})
}

func (j LockReconciler) now() time.Time {
	if j.Clock == nil {
		return time.Now().UTC()
	}
	return j.Clock.Now().UTC()
}
