package httptransport

// ErrorResponse is the uniform error body for vesting endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateScheduleRequest struct {
	VaultID       string `json:"vault_id"`
	TgePercentage int    `json:"tge_percentage"`
	CliffMonths   int    `json:"cliff_months"`
	VestingMonths int    `json:"vesting_months"`
	IntervalType  string `json:"interval_type"`
	TgeAt         string `json:"tge_at"`
}

type ScheduleResponse struct {
	ScheduleID    string `json:"schedule_id"`
	RoundID       string `json:"round_id"`
	VaultID       string `json:"vault_id"`
	TgePercentage int    `json:"tge_percentage"`
	CliffMonths   int    `json:"cliff_months"`
	VestingMonths int    `json:"vesting_months"`
	IntervalType  string `json:"interval_type"`
	TgeAt         string `json:"tge_at"`
	Status        string `json:"status"`
	TxReference   string `json:"tx_reference,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type AllocationStatusResponse struct {
	AllocationID     string `json:"allocation_id"`
	ScheduleID       string `json:"schedule_id"`
	WalletAddress    string `json:"wallet_address"`
	AllocationTokens int64  `json:"allocation_tokens"`
	ClaimedTokens    int64  `json:"claimed_tokens"`
	UnlockedTokens   int64  `json:"unlocked_tokens"`
	ClaimableTokens  int64  `json:"claimable_tokens"`
	TotalClaims      int    `json:"total_claims"`
	LastClaimAt      string `json:"last_claim_at,omitempty"`
	AsOf             string `json:"as_of"`
}

type SubmitClaimRequest struct {
	UserID        string `json:"user_id,omitempty"`
	WalletAddress string `json:"wallet_address"`
	Chain         string `json:"chain"`
	ClaimAmount   int64  `json:"claim_amount"`
}

type ClaimResponse struct {
	ClaimID       string `json:"claim_id"`
	AllocationID  string `json:"allocation_id"`
	ScheduleID    string `json:"schedule_id"`
	WalletAddress string `json:"wallet_address"`
	Chain         string `json:"chain"`
	ClaimAmount   int64  `json:"claim_amount"`
	Status        string `json:"status"`
	TxReference   string `json:"tx_reference,omitempty"`
	RequestedAt   string `json:"requested_at"`
	SettledAt     string `json:"settled_at,omitempty"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

type ListClaimsResponse struct {
	Items []ClaimResponse `json:"items"`
}

type RoundStatusResponse struct {
	RoundID        string `json:"round_id"`
	Result         string `json:"result"`
	VestingStatus  string `json:"vesting_status"`
	LockStatus     string `json:"lock_status"`
	SuccessGatedAt string `json:"success_gated_at,omitempty"`
}
