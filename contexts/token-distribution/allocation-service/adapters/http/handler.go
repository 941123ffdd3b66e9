package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tokenvault/contexts/token-distribution/allocation-service/application"
	"tokenvault/contexts/token-distribution/allocation-service/application/commands"
	"tokenvault/contexts/token-distribution/allocation-service/application/queries"
	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	httptransport "tokenvault/contexts/token-distribution/allocation-service/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) FinalizeRoundHandler(
	ctx context.Context,
	roundID string,
	req httptransport.FinalizeRoundRequest,
) (httptransport.CommitmentResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	commitment, err := h.Commands.FinalizeRound(ctx, commands.FinalizeRoundCommand{
		RoundID:       roundID,
		VaultID:       req.VaultID,
		ChainID:       req.ChainID,
		TokensForSale: req.TokensForSale,
	})
	if err != nil {
		logger.Warn("finalize round request failed",
			"event", "allocation_http_finalize_failed",
			"module", "token-distribution/allocation-service",
			"layer", "adapter",
			"round_id", strings.TrimSpace(roundID),
			"vault_id", strings.TrimSpace(req.VaultID),
			"error", err.Error(),
		)
		return httptransport.CommitmentResponse{}, err
	}
	logger.Info("finalize round request completed",
		"event", "allocation_http_finalize_completed",
		"module", "token-distribution/allocation-service",
		"layer", "adapter",
		"round_id", commitment.RoundID,
		"vault_id", commitment.VaultID,
	)
	return mapCommitment(commitment), nil
}

func (h Handler) GetCommitmentHandler(
	ctx context.Context,
	vaultID string,
) (httptransport.CommitmentResponse, error) {
	commitment, err := h.Queries.GetCommitment(ctx, vaultID)
	if err != nil {
		return httptransport.CommitmentResponse{}, err
	}
	return mapCommitment(commitment), nil
}

func (h Handler) GetProofHandler(
	ctx context.Context,
	vaultID string,
	address string,
) (httptransport.ProofResponse, error) {
	proof, err := h.Queries.GetProof(ctx, vaultID, address)
	if err != nil {
		return httptransport.ProofResponse{}, err
	}
	return httptransport.ProofResponse{
		VaultID:    proof.VaultID,
		Address:    proof.Address,
		Allocation: proof.Allocation,
		LeafIndex:  proof.LeafIndex,
		Siblings:   append([]string(nil), proof.Siblings...),
	}, nil
}

func (h Handler) VerifyHandler(
	ctx context.Context,
	vaultID string,
	req httptransport.VerifyRequest,
) (httptransport.VerifyResponse, error) {
	valid, err := h.Queries.Verify(ctx, queries.VerifyInput{
		VaultID:    vaultID,
		Address:    req.Address,
		Allocation: req.Allocation,
		Siblings:   append([]string(nil), req.Siblings...),
	})
	if err != nil {
		return httptransport.VerifyResponse{}, err
	}
	return httptransport.VerifyResponse{Valid: valid}, nil
}

func mapCommitment(commitment entities.MerkleCommitment) httptransport.CommitmentResponse {
	return httptransport.CommitmentResponse{
		VaultID:         commitment.VaultID,
		RoundID:         commitment.RoundID,
		ChainID:         commitment.ChainID,
		Root:            commitment.Root,
		TotalAllocation: commitment.TotalAllocation,
		LeafCount:       commitment.LeafCount,
		FinalizedAt:     commitment.FinalizedAt.Format(time.RFC3339),
	}
}
