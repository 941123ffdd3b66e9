package entities

import "time"

// VestingAllocation is one beneficiary's stake in a schedule, created in bulk
// from the finalized commitment snapshot. ClaimedTokens is monotonically
// non-decreasing and never exceeds AllocationTokens.
type VestingAllocation struct {
	ID               string
	ScheduleID       string
	UserID           string
	WalletAddress    string
	AllocationTokens int64
	ClaimedTokens    int64
	LastClaimAt      *time.Time
	TotalClaims      int
	UpdatedAt        time.Time
}
