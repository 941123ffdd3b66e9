package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tokenvault/contexts/token-distribution/vesting-service/application"
	"tokenvault/contexts/token-distribution/vesting-service/application/commands"
	"tokenvault/contexts/token-distribution/vesting-service/application/queries"
	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	httptransport "tokenvault/contexts/token-distribution/vesting-service/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) CreateScheduleHandler(
	ctx context.Context,
	roundID string,
	req httptransport.CreateScheduleRequest,
) (httptransport.ScheduleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	tgeAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.TgeAt))
	if err != nil {
		return httptransport.ScheduleResponse{}, domainerrors.ErrInvalidScheduleInput
	}
	schedule, err := h.Commands.CreateSchedule(ctx, commands.CreateScheduleCommand{
		RoundID:       roundID,
		VaultID:       req.VaultID,
		TgePercentage: req.TgePercentage,
		CliffMonths:   req.CliffMonths,
		VestingMonths: req.VestingMonths,
		IntervalType:  req.IntervalType,
		TgeAt:         tgeAt,
	})
	if err != nil {
		logger.Warn("create schedule request failed",
			"event", "vesting_http_create_schedule_failed",
			"module", "token-distribution/vesting-service",
			"layer", "adapter",
			"round_id", strings.TrimSpace(roundID),
			"error", err.Error(),
		)
		return httptransport.ScheduleResponse{}, err
	}
	return mapSchedule(schedule), nil
}

func (h Handler) GetScheduleHandler(
	ctx context.Context,
	scheduleID string,
) (httptransport.ScheduleResponse, error) {
	schedule, err := h.Queries.GetSchedule(ctx, scheduleID)
	if err != nil {
		return httptransport.ScheduleResponse{}, err
	}
	return mapSchedule(schedule), nil
}

func (h Handler) GetScheduleByRoundHandler(
	ctx context.Context,
	roundID string,
) (httptransport.ScheduleResponse, error) {
	schedule, err := h.Queries.GetScheduleByRound(ctx, roundID)
	if err != nil {
		return httptransport.ScheduleResponse{}, err
	}
	return mapSchedule(schedule), nil
}

func (h Handler) PauseScheduleHandler(ctx context.Context, scheduleID string) error {
	return h.Commands.PauseSchedule(ctx, scheduleID)
}

func (h Handler) ResumeScheduleHandler(ctx context.Context, scheduleID string) error {
	return h.Commands.ResumeSchedule(ctx, scheduleID)
}

func (h Handler) GetAllocationStatusHandler(
	ctx context.Context,
	scheduleID string,
	walletAddress string,
) (httptransport.AllocationStatusResponse, error) {
	status, err := h.Queries.GetAllocationStatus(ctx, scheduleID, walletAddress)
	if err != nil {
		return httptransport.AllocationStatusResponse{}, err
	}
	resp := httptransport.AllocationStatusResponse{
		AllocationID:     status.Allocation.ID,
		ScheduleID:       status.Allocation.ScheduleID,
		WalletAddress:    status.Allocation.WalletAddress,
		AllocationTokens: status.Allocation.AllocationTokens,
		ClaimedTokens:    status.Allocation.ClaimedTokens,
		UnlockedTokens:   status.Unlocked,
		ClaimableTokens:  status.Claimable,
		TotalClaims:      status.Allocation.TotalClaims,
		AsOf:             status.AsOf.Format(time.RFC3339),
	}
	if status.Allocation.LastClaimAt != nil {
		resp.LastClaimAt = status.Allocation.LastClaimAt.Format(time.RFC3339)
	}
	return resp, nil
}

func (h Handler) SubmitClaimHandler(
	ctx context.Context,
	scheduleID string,
	req httptransport.SubmitClaimRequest,
) (httptransport.ClaimResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.Commands.SubmitClaim(ctx, commands.SubmitClaimCommand{
		ScheduleID:    scheduleID,
		UserID:        req.UserID,
		WalletAddress: req.WalletAddress,
		Chain:         req.Chain,
		ClaimAmount:   req.ClaimAmount,
	})
	if err != nil {
		logger.Warn("submit claim request failed",
			"event", "vesting_http_submit_claim_failed",
			"module", "token-distribution/vesting-service",
			"layer", "adapter",
			"schedule_id", strings.TrimSpace(scheduleID),
			"error", err.Error(),
		)
		return httptransport.ClaimResponse{}, err
	}
	resp := mapClaim(result.Claim)
	resp.Duplicate = result.Duplicate
	return resp, nil
}

func (h Handler) GetClaimHandler(ctx context.Context, claimID string) (httptransport.ClaimResponse, error) {
	claim, err := h.Queries.GetClaim(ctx, claimID)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return mapClaim(claim), nil
}

func (h Handler) ListClaimsHandler(
	ctx context.Context,
	allocationID string,
) (httptransport.ListClaimsResponse, error) {
	claims, err := h.Queries.ListClaims(ctx, allocationID)
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	items := make([]httptransport.ClaimResponse, 0, len(claims))
	for _, claim := range claims {
		items = append(items, mapClaim(claim))
	}
	return httptransport.ListClaimsResponse{Items: items}, nil
}

func (h Handler) GetRoundStatusHandler(
	ctx context.Context,
	roundID string,
) (httptransport.RoundStatusResponse, error) {
	round, err := h.Queries.GetRound(ctx, roundID)
	if err != nil {
		return httptransport.RoundStatusResponse{}, err
	}
	resp := httptransport.RoundStatusResponse{
		RoundID:       round.ID,
		Result:        string(round.Result),
		VestingStatus: string(round.VestingStatus),
		LockStatus:    string(round.LockStatus),
	}
	if round.SuccessGatedAt != nil {
		resp.SuccessGatedAt = round.SuccessGatedAt.Format(time.RFC3339)
	}
	return resp, nil
}

func mapSchedule(schedule entities.VestingSchedule) httptransport.ScheduleResponse {
	return httptransport.ScheduleResponse{
		ScheduleID:    schedule.ID,
		RoundID:       schedule.RoundID,
		VaultID:       schedule.VaultID,
		TgePercentage: schedule.TgePercentage,
		CliffMonths:   schedule.CliffMonths,
		VestingMonths: schedule.VestingMonths,
		IntervalType:  string(schedule.IntervalType),
		TgeAt:         schedule.TgeAt.Format(time.RFC3339),
		Status:        string(schedule.Status),
		TxReference:   schedule.TxReference,
		CreatedAt:     schedule.CreatedAt.Format(time.RFC3339),
	}
}

func mapClaim(claim entities.VestingClaim) httptransport.ClaimResponse {
	resp := httptransport.ClaimResponse{
		ClaimID:       claim.ID,
		AllocationID:  claim.AllocationID,
		ScheduleID:    claim.ScheduleID,
		WalletAddress: claim.WalletAddress,
		Chain:         claim.Chain,
		ClaimAmount:   claim.ClaimAmount,
		Status:        string(claim.Status),
		TxReference:   claim.TxReference,
		RequestedAt:   claim.RequestedAt.Format(time.RFC3339),
	}
	if claim.SettledAt != nil {
		resp.SettledAt = claim.SettledAt.Format(time.RFC3339)
	}
	return resp
}
