package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "tokenvault/contexts/token-distribution/vesting-service/application"
	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

type CreateScheduleCommand struct {
	RoundID       string
	VaultID       string
	TgePercentage int
	CliffMonths   int
	VestingMonths int
	IntervalType  string
	TgeAt         time.Time
}

type UseCase struct {
	Schedules   ports.ScheduleRepository
	Allocations ports.AllocationRepository
	Claims      ports.ClaimRepository
	Commitments ports.CommitmentReader
	Ledger      ports.LedgerSubmitter
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// CreateSchedule creates the vesting schedule for a finalized round and
// bulk-creates one allocation per commitment leaf. The schedule starts
// PENDING; the reconciliation worker confirms or fails it against the ledger.
func (uc UseCase) CreateSchedule(
	ctx context.Context,
	cmd CreateScheduleCommand,
) (entities.VestingSchedule, error) {
	logger := application.ResolveLogger(uc.Logger)
	roundID := strings.TrimSpace(cmd.RoundID)
	vaultID := strings.TrimSpace(cmd.VaultID)
	interval := entities.IntervalType(strings.ToUpper(strings.TrimSpace(cmd.IntervalType)))

	if roundID == "" || vaultID == "" ||
		cmd.TgePercentage < 0 || cmd.TgePercentage > 100 ||
		cmd.CliffMonths < 0 || cmd.VestingMonths < 0 ||
		cmd.TgeAt.IsZero() ||
		(interval != entities.IntervalDaily && interval != entities.IntervalMonthly) {
		logger.Warn("schedule creation invalid input",
			"event", "vesting_schedule_invalid_input",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"round_id", roundID,
			"vault_id", vaultID,
			"interval_type", string(interval),
		)
		return entities.VestingSchedule{}, domainerrors.ErrInvalidScheduleInput
	}

	if _, err := uc.Schedules.GetScheduleByRound(ctx, roundID); err == nil {
		logger.Warn("schedule creation round already scheduled",
			"event", "vesting_schedule_exists",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"round_id", roundID,
		)
		return entities.VestingSchedule{}, domainerrors.ErrScheduleExists
	} else if !errors.Is(err, domainerrors.ErrScheduleNotFound) {
		return entities.VestingSchedule{}, err
	}

	commitment, err := uc.Commitments.GetCommitment(ctx, vaultID)
	if err != nil {
		logger.Warn("schedule creation commitment lookup failed",
			"event", "vesting_schedule_commitment_lookup_failed",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"vault_id", vaultID,
			"error", err.Error(),
		)
		return entities.VestingSchedule{}, err
	}
	if commitment.TotalAllocation <= 0 || commitment.LeafCount == 0 {
		logger.Warn("schedule creation rejected empty commitment",
			"event", "vesting_schedule_empty_commitment",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"vault_id", vaultID,
		)
		return entities.VestingSchedule{}, domainerrors.ErrEmptyCommitment
	}

	leaves, err := uc.Commitments.ListLeaves(ctx, vaultID)
	if err != nil {
		return entities.VestingSchedule{}, err
	}
	if len(leaves) == 0 {
		return entities.VestingSchedule{}, domainerrors.ErrEmptyCommitment
	}

	scheduleID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.VestingSchedule{}, err
	}
	now := uc.now()
	schedule := entities.VestingSchedule{
		ID:            scheduleID,
		RoundID:       roundID,
		VaultID:       vaultID,
		TgePercentage: cmd.TgePercentage,
		CliffMonths:   cmd.CliffMonths,
		VestingMonths: cmd.VestingMonths,
		IntervalType:  interval,
		TgeAt:         cmd.TgeAt.UTC(),
		Status:        entities.ScheduleStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	allocations := make([]entities.VestingAllocation, 0, len(leaves))
	for _, leaf := range leaves {
		allocationID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.VestingSchedule{}, err
		}
		allocations = append(allocations, entities.VestingAllocation{
			ID:               allocationID,
			ScheduleID:       scheduleID,
			UserID:           leaf.Address,
			WalletAddress:    leaf.Address,
			AllocationTokens: leaf.Allocation,
			UpdatedAt:        now,
		})
	}

	if err := uc.Schedules.CreateSchedule(ctx, schedule, allocations); err != nil {
		if errors.Is(err, domainerrors.ErrScheduleExists) {
			return entities.VestingSchedule{}, domainerrors.ErrScheduleExists
		}
		logger.Error("schedule creation persistence failed",
			"event", "vesting_schedule_persist_failed",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"round_id", roundID,
			"error", err.Error(),
		)
		return entities.VestingSchedule{}, err
	}

	txReference, err := uc.Ledger.SubmitSchedule(ctx, ports.ScheduleSubmission{
		RoundID:       roundID,
		VaultID:       vaultID,
		TgePercentage: cmd.TgePercentage,
		CliffMonths:   cmd.CliffMonths,
		VestingMonths: cmd.VestingMonths,
		IntervalType:  string(interval),
		TgeAt:         schedule.TgeAt,
	})
	if err != nil {
		// Synchronous rejection: fail the schedule through the conditional
		// path, never delete it.
		if failErr := uc.Schedules.TransitionScheduleStatus(
			ctx, scheduleID,
			entities.ScheduleStatusPending, entities.ScheduleStatusFailed,
			uc.now(),
		); failErr != nil {
			logger.Error("schedule submit rejection mark failed",
				"event", "vesting_schedule_fail_mark_failed",
				"module", "token-distribution/vesting-service",
				"layer", "application",
				"schedule_id", scheduleID,
				"error", failErr.Error(),
			)
		}
		logger.Warn("schedule ledger submission rejected",
			"event", "vesting_schedule_submit_rejected",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"round_id", roundID,
			"error", err.Error(),
		)
		return entities.VestingSchedule{}, err
	}
	if err := uc.Schedules.SetScheduleTxReference(ctx, scheduleID, txReference); err != nil {
		return entities.VestingSchedule{}, err
	}
	schedule.TxReference = txReference

	if err := uc.appendOutbox(ctx, "token-distribution.schedule.created", roundID, map[string]any{
		"schedule_id": scheduleID,
		"round_id":    roundID,
		"vault_id":    vaultID,
	}); err != nil {
		logger.Error("schedule outbox append failed",
			"event", "vesting_schedule_outbox_failed",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"schedule_id", scheduleID,
			"error", err.Error(),
		)
		return entities.VestingSchedule{}, err
	}

	logger.Info("vesting schedule created",
		"event", "vesting_schedule_created",
		"module", "token-distribution/vesting-service",
		"layer", "application",
		"schedule_id", scheduleID,
		"round_id", roundID,
		"vault_id", vaultID,
		"allocation_count", len(allocations),
		"tx_reference", txReference,
	)
	return schedule, nil
}

// PauseSchedule moves a CONFIRMED schedule to PAUSED. Administrative and
// reversible; claims are rejected while paused.
func (uc UseCase) PauseSchedule(ctx context.Context, scheduleID string) error {
	return uc.transitionSchedule(ctx, scheduleID,
		entities.ScheduleStatusConfirmed, entities.ScheduleStatusPaused, "vesting_schedule_paused")
}

// ResumeSchedule moves a PAUSED schedule back to CONFIRMED.
func (uc UseCase) ResumeSchedule(ctx context.Context, scheduleID string) error {
	return uc.transitionSchedule(ctx, scheduleID,
		entities.ScheduleStatusPaused, entities.ScheduleStatusConfirmed, "vesting_schedule_resumed")
}

func (uc UseCase) transitionSchedule(
	ctx context.Context,
	scheduleID string,
	from entities.ScheduleStatus,
	to entities.ScheduleStatus,
	event string,
) error {
	logger := application.ResolveLogger(uc.Logger)
	normalizedID := strings.TrimSpace(scheduleID)
	if err := uc.Schedules.TransitionScheduleStatus(ctx, normalizedID, from, to, uc.now()); err != nil {
		logger.Warn("schedule status transition rejected",
			"event", event+"_rejected",
			"module", "token-distribution/vesting-service",
			"layer", "application",
			"schedule_id", normalizedID,
			"from", string(from),
			"to", string(to),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("schedule status transitioned",
		"event", event,
		"module", "token-distribution/vesting-service",
		"layer", "application",
		"schedule_id", normalizedID,
		"from", string(from),
		"to", string(to),
	)
	return nil
}

func (uc UseCase) appendOutbox(
	ctx context.Context,
	eventType string,
	partitionKey string,
	data map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       uc.now(),
		SourceService:    "vesting-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "round_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	})
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
