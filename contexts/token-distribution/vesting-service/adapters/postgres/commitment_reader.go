package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/ports"

	"gorm.io/gorm"
)

// CommitmentReader is a read-only projection over the allocation-service
// tables. Vesting never writes across the module boundary.
type CommitmentReader struct {
	db *gorm.DB
}

func NewCommitmentReader(db *gorm.DB) *CommitmentReader {
	return &CommitmentReader{db: db}
}

func (r *CommitmentReader) GetCommitment(ctx context.Context, vaultID string) (ports.CommitmentView, error) {
	var row commitmentRow
	err := r.db.WithContext(ctx).
		Where("vault_id = ?", strings.TrimSpace(vaultID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CommitmentView{}, domainerrors.ErrEmptyCommitment
		}
		return ports.CommitmentView{}, err
	}
	return ports.CommitmentView{
		VaultID:         row.VaultID,
		RoundID:         row.RoundID,
		ChainID:         row.ChainID,
		Root:            row.Root,
		TotalAllocation: row.TotalAllocation,
		LeafCount:       row.LeafCount,
	}, nil
}

func (r *CommitmentReader) ListLeaves(ctx context.Context, vaultID string) ([]ports.AllocationLeafView, error) {
	var rows []proofRow
	if err := r.db.WithContext(ctx).
		Where("vault_id = ?", strings.TrimSpace(vaultID)).
		Order("leaf_index ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.AllocationLeafView, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AllocationLeafView{
			Address:    row.Address,
			Allocation: row.Allocation,
		})
	}
	return items, nil
}

func (r *CommitmentReader) GetProof(ctx context.Context, vaultID string, address string) (ports.ProofView, error) {
	var row proofRow
	err := r.db.WithContext(ctx).
		Where("vault_id = ? AND address = ?",
			strings.TrimSpace(vaultID),
			strings.ToLower(strings.TrimSpace(address)),
		).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ProofView{}, domainerrors.ErrAllocationNotFound
		}
		return ports.ProofView{}, err
	}
	return ports.ProofView{
		Address:    row.Address,
		Allocation: row.Allocation,
		Siblings:   append([]string(nil), row.Siblings...),
	}, nil
}

type commitmentRow struct {
	VaultID         string    `gorm:"column:vault_id;primaryKey"`
	RoundID         string    `gorm:"column:round_id"`
	ChainID         uint64    `gorm:"column:chain_id"`
	Root            string    `gorm:"column:root"`
	TotalAllocation int64     `gorm:"column:total_allocation"`
	LeafCount       int       `gorm:"column:leaf_count"`
	FinalizedAt     time.Time `gorm:"column:finalized_at"`
}

func (commitmentRow) TableName() string {
	return "merkle_commitments"
}

type proofRow struct {
	VaultID    string   `gorm:"column:vault_id;primaryKey"`
	Address    string   `gorm:"column:address;primaryKey"`
	Allocation int64    `gorm:"column:allocation"`
	LeafIndex  int      `gorm:"column:leaf_index"`
	Siblings   []string `gorm:"column:siblings;type:text[]"`
}

func (proofRow) TableName() string {
	return "merkle_proofs"
}

var _ ports.CommitmentReader = (*CommitmentReader)(nil)
