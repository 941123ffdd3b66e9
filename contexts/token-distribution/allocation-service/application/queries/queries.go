package queries

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"

	application "tokenvault/contexts/token-distribution/allocation-service/application"
	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
	"tokenvault/contexts/token-distribution/allocation-service/domain/services"
	"tokenvault/contexts/token-distribution/allocation-service/ports"
)

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (uc UseCase) GetCommitment(ctx context.Context, vaultID string) (entities.MerkleCommitment, error) {
	commitment, err := uc.Repository.GetCommitment(ctx, strings.TrimSpace(vaultID))
	if err != nil {
		application.ResolveLogger(uc.Logger).Warn("commitment lookup failed",
			"event", "allocation_query_commitment_failed",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"vault_id", strings.TrimSpace(vaultID),
			"error", err.Error(),
		)
		return entities.MerkleCommitment{}, err
	}
	return commitment, nil
}

func (uc UseCase) GetProof(ctx context.Context, vaultID string, address string) (entities.MerkleProof, error) {
	proof, err := uc.Repository.GetProof(
		ctx,
		strings.TrimSpace(vaultID),
		services.CanonicalAddress(address),
	)
	if err != nil {
		application.ResolveLogger(uc.Logger).Warn("proof lookup failed",
			"event", "allocation_query_proof_failed",
			"module", "token-distribution/allocation-service",
			"layer", "application",
			"vault_id", strings.TrimSpace(vaultID),
			"address", services.CanonicalAddress(address),
			"error", err.Error(),
		)
		return entities.MerkleProof{}, err
	}
	return proof, nil
}

type VerifyInput struct {
	VaultID    string
	Address    string
	Allocation int64
	Siblings   []string
}

// Verify replays the public verification contract: recompute the leaf hash
// from the stored commitment parameters and fold the supplied proof upward.
func (uc UseCase) Verify(ctx context.Context, input VerifyInput) (bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	commitment, err := uc.Repository.GetCommitment(ctx, strings.TrimSpace(input.VaultID))
	if err != nil {
		return false, err
	}

	salt, err := hex.DecodeString(commitment.ScheduleSalt)
	if err != nil {
		return false, domainerrors.ErrInvalidVerifyInput
	}
	rootBytes, err := hex.DecodeString(commitment.Root)
	if err != nil || len(rootBytes) != services.HashSize {
		return false, domainerrors.ErrInvalidVerifyInput
	}
	var root [services.HashSize]byte
	copy(root[:], rootBytes)

	siblings := make([][services.HashSize]byte, 0, len(input.Siblings))
	for _, encoded := range input.Siblings {
		raw, err := hex.DecodeString(strings.TrimSpace(encoded))
		if err != nil || len(raw) != services.HashSize {
			return false, domainerrors.ErrInvalidVerifyInput
		}
		var sibling [services.HashSize]byte
		copy(sibling[:], raw)
		siblings = append(siblings, sibling)
	}

	valid := services.VerifyProof(
		commitment.VaultID,
		commitment.ChainID,
		salt,
		input.Address,
		input.Allocation,
		siblings,
		root,
	)
	logger.Info("proof verification evaluated",
		"event", "allocation_proof_verified",
		"module", "token-distribution/allocation-service",
		"layer", "application",
		"vault_id", commitment.VaultID,
		"address", services.CanonicalAddress(input.Address),
		"valid", valid,
	)
	return valid, nil
}
