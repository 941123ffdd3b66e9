package entities

import "time"

type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusConfirmed ContributionStatus = "confirmed"
	ContributionStatusRejected  ContributionStatus = "rejected"
)

// Contribution is a read-only projection of a confirmed raise contribution.
// Amounts are integer base units of the raise currency.
type Contribution struct {
	ID      string
	RoundID string
	UserID  string
	Address string
	Amount  int64
	Status  ContributionStatus
	TxHash  string
}

// AllocationLeaf is a single (address, allocation) pair committed into the tree.
// Address is canonical (lowercased, trimmed); at most one leaf per address.
type AllocationLeaf struct {
	Address    string
	Allocation int64
}

// MerkleCommitment is the published, immutable allocation commitment for one
// vault. Root is a pure function of (vault, chain, salt, sorted leaf set);
// a new round requires a new vault and salt, never a root mutation.
// FinalizedAt is the explicit contribution cutoff: contributions confirmed
// after this instant are not part of the commitment.
type MerkleCommitment struct {
	VaultID         string
	RoundID         string
	ChainID         uint64
	ScheduleSalt    string
	Root            string
	TotalAllocation int64
	LeafCount       int
	FinalizedAt     time.Time
}

// MerkleProof is the per-address inclusion proof, sibling hashes ordered from
// leaf to root.
type MerkleProof struct {
	VaultID    string
	Address    string
	Allocation int64
	LeafIndex  int
	Siblings   []string
}
