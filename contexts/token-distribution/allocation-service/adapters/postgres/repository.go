package postgresadapter

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
	"tokenvault/contexts/token-distribution/allocation-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const scheduleSaltBytes = 32

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateCommitment(
	ctx context.Context,
	commitment entities.MerkleCommitment,
	proofs []entities.MerkleProof,
) error {
	row := merkleCommitmentModel{
		VaultID:         strings.TrimSpace(commitment.VaultID),
		RoundID:         strings.TrimSpace(commitment.RoundID),
		ChainID:         commitment.ChainID,
		ScheduleSalt:    commitment.ScheduleSalt,
		Root:            commitment.Root,
		TotalAllocation: commitment.TotalAllocation,
		LeafCount:       commitment.LeafCount,
		FinalizedAt:     commitment.FinalizedAt.UTC(),
	}
	proofRows := make([]merkleProofModel, 0, len(proofs))
	for _, proof := range proofs {
		proofRows = append(proofRows, merkleProofModel{
			VaultID:    row.VaultID,
			Address:    proof.Address,
			Allocation: proof.Allocation,
			LeafIndex:  proof.LeafIndex,
			Siblings:   append([]string(nil), proof.Siblings...),
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(proofRows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&proofRows, 500).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			r.logWarn("allocation_repo_commitment_unique_conflict",
				"vault_id", row.VaultID,
				"round_id", row.RoundID,
			)
			return domainerrors.ErrCommitmentExists
		}
		return r.logError("allocation_repo_create_commitment_failed", err,
			"vault_id", row.VaultID,
			"round_id", row.RoundID,
		)
	}
	return nil
}

func (r *Repository) GetCommitment(ctx context.Context, vaultID string) (entities.MerkleCommitment, error) {
	var row merkleCommitmentModel
	err := r.db.WithContext(ctx).
		Where("vault_id = ?", strings.TrimSpace(vaultID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MerkleCommitment{}, domainerrors.ErrCommitmentNotFound
		}
		return entities.MerkleCommitment{}, r.logError("allocation_repo_get_commitment_failed", err,
			"vault_id", strings.TrimSpace(vaultID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCommitmentByRound(ctx context.Context, roundID string) (entities.MerkleCommitment, error) {
	var row merkleCommitmentModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MerkleCommitment{}, domainerrors.ErrCommitmentNotFound
		}
		return entities.MerkleCommitment{}, r.logError("allocation_repo_get_commitment_by_round_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetProof(ctx context.Context, vaultID string, address string) (entities.MerkleProof, error) {
	var row merkleProofModel
	err := r.db.WithContext(ctx).
		Where("vault_id = ?", strings.TrimSpace(vaultID)).
		Where("address = ?", strings.ToLower(strings.TrimSpace(address))).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MerkleProof{}, domainerrors.ErrProofNotFound
		}
		return entities.MerkleProof{}, r.logError("allocation_repo_get_proof_failed", err,
			"vault_id", strings.TrimSpace(vaultID),
			"address", strings.ToLower(strings.TrimSpace(address)),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProofs(ctx context.Context, vaultID string) ([]entities.MerkleProof, error) {
	var rows []merkleProofModel
	if err := r.db.WithContext(ctx).
		Where("vault_id = ?", strings.TrimSpace(vaultID)).
		Order("leaf_index ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("allocation_repo_list_proofs_failed", err,
			"vault_id", strings.TrimSpace(vaultID),
		)
	}
	proofs := make([]entities.MerkleProof, 0, len(rows))
	for _, row := range rows {
		proofs = append(proofs, row.toEntity())
	}
	return proofs, nil
}

// ListConfirmedContributions is a read-only projection over the contribution
// ledger owned by the raise bookkeeping service.
func (r *Repository) ListConfirmedContributions(ctx context.Context, roundID string) ([]entities.Contribution, error) {
	var rows []contributionModel
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Where("status = ?", string(entities.ContributionStatusConfirmed)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("allocation_repo_list_contributions_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	contributions := make([]entities.Contribution, 0, len(rows))
	for _, row := range rows {
		contributions = append(contributions, entities.Contribution{
			ID:      row.ID,
			RoundID: row.RoundID,
			UserID:  row.UserID,
			Address: row.Address,
			Amount:  row.Amount,
			Status:  entities.ContributionStatus(row.Status),
			TxHash:  row.TxHash,
		})
	}
	return contributions, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "token-distribution/allocation-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("allocation repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "token-distribution/allocation-service",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("allocation repository warning", fields...)
}

type merkleCommitmentModel struct {
	VaultID         string    `gorm:"column:vault_id;primaryKey"`
	RoundID         string    `gorm:"column:round_id;uniqueIndex"`
	ChainID         uint64    `gorm:"column:chain_id"`
	ScheduleSalt    string    `gorm:"column:schedule_salt"`
	Root            string    `gorm:"column:root"`
	TotalAllocation int64     `gorm:"column:total_allocation"`
	LeafCount       int       `gorm:"column:leaf_count"`
	FinalizedAt     time.Time `gorm:"column:finalized_at"`
}

func (merkleCommitmentModel) TableName() string {
	return "merkle_commitments"
}

func (m merkleCommitmentModel) toEntity() entities.MerkleCommitment {
	return entities.MerkleCommitment{
		VaultID:         m.VaultID,
		RoundID:         m.RoundID,
		ChainID:         m.ChainID,
		ScheduleSalt:    m.ScheduleSalt,
		Root:            m.Root,
		TotalAllocation: m.TotalAllocation,
		LeafCount:       m.LeafCount,
		FinalizedAt:     m.FinalizedAt.UTC(),
	}
}

type merkleProofModel struct {
	VaultID    string   `gorm:"column:vault_id;primaryKey"`
	Address    string   `gorm:"column:address;primaryKey"`
	Allocation int64    `gorm:"column:allocation"`
	LeafIndex  int      `gorm:"column:leaf_index"`
	Siblings   []string `gorm:"column:siblings;type:text[]"`
}

func (merkleProofModel) TableName() string {
	return "merkle_proofs"
}

func (m merkleProofModel) toEntity() entities.MerkleProof {
	return entities.MerkleProof{
		VaultID:    m.VaultID,
		Address:    m.Address,
		Allocation: m.Allocation,
		LeafIndex:  m.LeafIndex,
		Siblings:   append([]string(nil), m.Siblings...),
	}
}

type contributionModel struct {
	ID      string `gorm:"column:id;primaryKey"`
	RoundID string `gorm:"column:round_id"`
	UserID  string `gorm:"column:user_id"`
	Address string `gorm:"column:address"`
	Amount  int64  `gorm:"column:amount"`
	Status  string `gorm:"column:status"`
	TxHash  string `gorm:"column:tx_hash"`
}

func (contributionModel) TableName() string {
	return "contributions"
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// RandomSaltGenerator mints the per-vault schedule salt.
type RandomSaltGenerator struct{}

func (RandomSaltGenerator) NewSalt(_ context.Context) ([]byte, error) {
	salt := make([]byte, scheduleSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.ContributionSource = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.SaltGenerator = RandomSaltGenerator{}
