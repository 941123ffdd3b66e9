package ports

import (
	"context"
	"time"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
)

// Repository owns commitment and proof persistence. A commitment and its
// proofs are written exactly once per vault, inside one transaction.
type Repository interface {
	CreateCommitment(
		ctx context.Context,
		commitment entities.MerkleCommitment,
		proofs []entities.MerkleProof,
	) error
	GetCommitment(ctx context.Context, vaultID string) (entities.MerkleCommitment, error)
	GetCommitmentByRound(ctx context.Context, roundID string) (entities.MerkleCommitment, error)
	GetProof(ctx context.Context, vaultID string, address string) (entities.MerkleProof, error)
	ListProofs(ctx context.Context, vaultID string) ([]entities.MerkleProof, error)
}

// ContributionSource supplies the confirmed contribution set for a round.
// The aggregator trusts this set is final at finalization time.
type ContributionSource interface {
	ListConfirmedContributions(ctx context.Context, roundID string) ([]entities.Contribution, error)
}

type Clock interface {
	Now() time.Time
}

// SaltGenerator mints the per-vault random salt mixed into every leaf hash.
type SaltGenerator interface {
	NewSalt(ctx context.Context) ([]byte, error)
}
