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

// ScheduleReconciler resolves PENDING schedules against the ledger, mirrors
// the outcome onto the round's vesting status, and attempts the round
// success gate after each confirmation.
type ScheduleReconciler struct {
	Schedules    ports.ScheduleRepository
	Rounds       ports.RoundRepository
	Verifier     ports.LedgerVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	BatchSize    int
	CheckTimeout time.Duration
	Logger       *slog.Logger
}

func (j ScheduleReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}
	timeout := j.CheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	pending, err := j.Schedules.ListPendingSchedules(ctx, limit)
	if err != nil {
		logger.Error("schedule reconciliation list failed",
			"event", "vesting_schedule_reconcile_list_failed",
			"module", "token-distribution/vesting-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, schedule := range pending {
		if schedule.TxReference == "" {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		status, err := j.Verifier.Check(checkCtx, schedule.TxReference)
		cancel()
		if err != nil {
			logger.Warn("schedule verification inconclusive",
				"event", "vesting_schedule_verify_inconclusive",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"tx_reference", schedule.TxReference,
				"error", err.Error(),
			)
			continue
		}

		now := j.now()
		switch status {
		case ports.VerificationSucceeded:
			if err := j.Schedules.TransitionScheduleStatus(
				ctx, schedule.ID,
				entities.ScheduleStatusPending, entities.ScheduleStatusConfirmed,
				now,
			); err != nil {
				// Another sweep got there first; the round-side updates below
				// are idempotent either way.
				logger.Warn("schedule confirm transition skipped",
					"event", "vesting_schedule_confirm_skipped",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"schedule_id", schedule.ID,
					"error", err.Error(),
				)
			}
			if err := j.Rounds.SetVestingStatus(ctx, schedule.RoundID, entities.RoundVestingConfirmed); err != nil {
				logger.Error("round vesting status update failed",
					"event", "vesting_round_status_update_failed",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"round_id", schedule.RoundID,
					"error", err.Error(),
				)
				return err
			}
			if err := j.tryGate(ctx, schedule.RoundID); err != nil {
				return err
			}
			logger.Info("schedule confirmed",
				"event", "vesting_schedule_confirmed",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"round_id", schedule.RoundID,
			)
		case ports.VerificationFailed:
			if err := j.Schedules.TransitionScheduleStatus(
				ctx, schedule.ID,
				entities.ScheduleStatusPending, entities.ScheduleStatusFailed,
				now,
			); err != nil {
				logger.Warn("schedule fail transition skipped",
					"event", "vesting_schedule_fail_skipped",
					"module", "token-distribution/vesting-service",
					"layer", "worker",
					"schedule_id", schedule.ID,
					"error", err.Error(),
				)
				continue
			}
			if err := j.Rounds.SetVestingStatus(ctx, schedule.RoundID, entities.RoundVestingFailed); err != nil {
				return err
			}
			logger.Warn("schedule failed on ledger",
				"event", "vesting_schedule_failed",
				"module", "token-distribution/vesting-service",
				"layer", "worker",
				"schedule_id", schedule.ID,
				"round_id", schedule.RoundID,
			)
		}
	}
	return nil
}

// tryGate attempts the single success-gate write for the round. The write is
// conditional on result SUCCESS, vesting CONFIRMED, lock LOCKED and the gate
// not yet fired; only the call that lands it appends the outbox event.
func (j ScheduleReconciler) tryGate(ctx context.Context, roundID string) error {
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

func (j ScheduleReconciler) now() time.Time {
	if j.Clock == nil {
		return time.Now().UTC()
	}
	return j.Clock.Now().UTC()
}
