package commands

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "tokenvault/contexts/token-distribution/allocation-service/application"
	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
	"tokenvault/contexts/token-distribution/allocation-service/domain/services"
	"tokenvault/contexts/token-distribution/allocation-service/ports"
)

type FinalizeRoundCommand struct {
	RoundID       string
	VaultID       string
	ChainID       uint64
	TokensForSale int64
}

type UseCase struct {
	Repository    ports.Repository
	Contributions ports.ContributionSource
	Clock         ports.Clock
	Salts         ports.SaltGenerator
	Logger        *slog.Logger
}

// FinalizeRound builds and publishes the salted Merkle allocation commitment
// for one round. The contribution snapshot read here is the cutoff:
// contributions confirmed afterwards are excluded by contract, and the
// commitment is immutable once written.
func (uc UseCase) FinalizeRound(
	ctx context.Context,
	cmd FinalizeRoundCommand,
) (entities.MerkleCommitment, error) {
	logger := application.ResolveLogger(uc.Logger)
	roundID := strings.TrimSpace(cmd.RoundID)
	vaultID := strings.TrimSpace(cmd.VaultID)
	if roundID == "" || vaultID == "" || cmd.ChainID == 0 || cmd.TokensForSale <= 0 {
		logger.Warn("round finalization invalid input",
			"event", "allocation_finalize_invalid_input",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"round_id", roundID,
			"vault_id", vaultID,
			"chain_id", cmd.ChainID,
		)
		return entities.MerkleCommitment{}, domainerrors.ErrInvalidFinalizeInput
	}

	if _, err := uc.Repository.GetCommitment(ctx, vaultID); err == nil {
		logger.Warn("round finalization commitment exists",
			"event", "allocation_finalize_commitment_exists",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"vault_id", vaultID,
		)
		return entities.MerkleCommitment{}, domainerrors.ErrCommitmentExists
	} else if !errors.Is(err, domainerrors.ErrCommitmentNotFound) {
		return entities.MerkleCommitment{}, err
	}

	contributions, err := uc.Contributions.ListConfirmedContributions(ctx, roundID)
	if err != nil {
		logger.Error("round finalization contribution snapshot failed",
			"event", "allocation_finalize_snapshot_failed",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"round_id", roundID,
			"error", err.Error(),
		)
		return entities.MerkleCommitment{}, err
	}
	if len(contributions) == 0 {
		logger.Warn("round finalization without confirmed contributions",
			"event", "allocation_finalize_no_contributions",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"round_id", roundID,
		)
		return entities.MerkleCommitment{}, domainerrors.ErrNoConfirmedContributions
	}

	leaves, err := services.AggregateAllocations(contributions, cmd.TokensForSale)
	if err != nil {
		logger.Warn("round finalization aggregation rejected",
			"event", "allocation_finalize_aggregation_rejected",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"round_id", roundID,
			"contribution_count", len(contributions),
			"error", err.Error(),
		)
		return entities.MerkleCommitment{}, err
	}

	salt, err := uc.Salts.NewSalt(ctx)
	if err != nil {
		logger.Error("round finalization salt generation failed",
			"event", "allocation_finalize_salt_failed",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"vault_id", vaultID,
			"error", err.Error(),
		)
		return entities.MerkleCommitment{}, err
	}

	tree := services.BuildTree(vaultID, cmd.ChainID, salt, leaves)
	commitment := entities.MerkleCommitment{
		VaultID:         vaultID,
		RoundID:         roundID,
		ChainID:         cmd.ChainID,
		ScheduleSalt:    hex.EncodeToString(salt),
		Root:            hex.EncodeToString(tree.Root[:]),
		TotalAllocation: tree.TotalAllocation,
		LeafCount:       len(leaves),
		FinalizedAt:     uc.now(),
	}

	proofs := make([]entities.MerkleProof, 0, len(leaves))
	for _, leaf := range leaves {
		siblings, ok := tree.Proof(leaf.Address)
		if !ok {
			return entities.MerkleCommitment{}, domainerrors.ErrProofNotFound
		}
		index, _ := tree.LeafIndex(leaf.Address)
		encoded := make([]string, len(siblings))
		for i, sibling := range siblings {
			encoded[i] = hex.EncodeToString(sibling[:])
		}
		proofs = append(proofs, entities.MerkleProof{
			VaultID:    vaultID,
			Address:    leaf.Address,
			Allocation: leaf.Allocation,
			LeafIndex:  index,
			Siblings:   encoded,
		})
	}

	if err := uc.Repository.CreateCommitment(ctx, commitment, proofs); err != nil {
		if errors.Is(err, domainerrors.ErrCommitmentExists) {
			return entities.MerkleCommitment{}, domainerrors.ErrCommitmentExists
		}
		logger.Error("round finalization commitment persistence failed",
			"event", "allocation_finalize_persist_failed",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"vault_id", vaultID,
			"error", err.Error(),
		)
		return entities.MerkleCommitment{}, err
	}

	logger.Info("round allocation commitment published",
		"event", "allocation_commitment_published",
		"module", "token-distribution/allocation-service",
		"layer", "application",
		"round_id", roundID,
		"vault_id", vaultID,
		"chain_id", cmd.ChainID,
		"leaf_count", len(leaves),
		"total_allocation", tree.TotalAllocation,
		"root", commitment.Root,
	)
	return commitment, nil
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
