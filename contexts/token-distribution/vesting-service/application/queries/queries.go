package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/domain/services"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

type UseCase struct {
	Schedules   ports.ScheduleRepository
	Allocations ports.AllocationRepository
	Claims      ports.ClaimRepository
	Rounds      ports.RoundRepository
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (uc UseCase) GetSchedule(ctx context.Context, scheduleID string) (entities.VestingSchedule, error) {
	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" {
		return entities.VestingSchedule{}, domainerrors.ErrScheduleNotFound
	}
	return uc.Schedules.GetSchedule(ctx, scheduleID)
}

func (uc UseCase) GetScheduleByRound(ctx context.Context, roundID string) (entities.VestingSchedule, error) {
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return entities.VestingSchedule{}, domainerrors.ErrScheduleNotFound
	}
	return uc.Schedules.GetScheduleByRound(ctx, roundID)
}

// AllocationStatus is the claimable breakdown for one wallet at a point in
// time. All amounts are integer token units.
type AllocationStatus struct {
	Allocation entities.VestingAllocation
	Unlocked   int64
	Claimable  int64
	AsOf       time.Time
}

// GetAllocationStatus resolves a wallet's allocation under a schedule and
// computes the unlocked and claimable amounts at the current clock reading.
func (uc UseCase) GetAllocationStatus(
	ctx context.Context,
	scheduleID string,
	walletAddress string,
) (AllocationStatus, error) {
	scheduleID = strings.TrimSpace(scheduleID)
	walletAddress = strings.ToLower(strings.TrimSpace(walletAddress))
	if scheduleID == "" || walletAddress == "" {
		return AllocationStatus{}, domainerrors.ErrAllocationNotFound
	}

	schedule, err := uc.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return AllocationStatus{}, err
	}
	allocation, err := uc.Allocations.GetAllocation(ctx, scheduleID, walletAddress)
	if err != nil {
		return AllocationStatus{}, err
	}

	now := uc.now()
	unlocked := services.UnlockedAmount(schedule, allocation.AllocationTokens, now)
	claimable := services.Claimable(schedule, allocation.AllocationTokens, allocation.ClaimedTokens, now)
	return AllocationStatus{
		Allocation: allocation,
		Unlocked:   unlocked,
		Claimable:  claimable,
		AsOf:       now,
	}, nil
}

func (uc UseCase) GetClaim(ctx context.Context, claimID string) (entities.VestingClaim, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return entities.VestingClaim{}, domainerrors.ErrClaimNotFound
	}
	return uc.Claims.GetClaim(ctx, claimID)
}

func (uc UseCase) ListClaims(ctx context.Context, allocationID string) ([]entities.VestingClaim, error) {
	allocationID = strings.TrimSpace(allocationID)
	if allocationID == "" {
		return nil, domainerrors.ErrAllocationNotFound
	}
	return uc.Claims.ListClaims(ctx, allocationID)
}

func (uc UseCase) GetRound(ctx context.Context, roundID string) (entities.Round, error) {
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return entities.Round{}, domainerrors.ErrRoundNotFound
	}
	return uc.Rounds.GetRound(ctx, roundID)
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
