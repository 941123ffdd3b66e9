package entities

import "time"

type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "PENDING"
	ClaimStatusConfirmed ClaimStatus = "CONFIRMED"
	ClaimStatusFailed    ClaimStatus = "FAILED"
)

// VestingClaim is the lifecycle record of a single claim attempt.
// CONFIRMED and FAILED are terminal; no transition ever leaves them.
// IdempotencyKey is derived from (allocation, calendar-day bucket) and
// unique-constrained so concurrent duplicates collapse to one row.
type VestingClaim struct {
	ID             string
	AllocationID   string
	ScheduleID     string
	UserID         string
	WalletAddress  string
	Chain          string
	ClaimAmount    int64
	Status         ClaimStatus
	IdempotencyKey string
	TxReference    string
	RequestedAt    time.Time
	SettledAt      *time.Time
}
