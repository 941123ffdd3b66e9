package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FinalizeRoundRequest struct {
	VaultID       string `json:"vault_id"`
	ChainID       uint64 `json:"chain_id"`
	TokensForSale int64  `json:"tokens_for_sale"`
}

type CommitmentResponse struct {
	VaultID         string `json:"vault_id"`
	RoundID         string `json:"round_id"`
	ChainID         uint64 `json:"chain_id"`
	Root            string `json:"root"`
	TotalAllocation int64  `json:"total_allocation"`
	LeafCount       int    `json:"leaf_count"`
	FinalizedAt     string `json:"finalized_at"`
}

type ProofResponse struct {
	VaultID    string   `json:"vault_id"`
	Address    string   `json:"address"`
	Allocation int64    `json:"allocation"`
	LeafIndex  int      `json:"leaf_index"`
	Siblings   []string `json:"siblings"`
}

type VerifyRequest struct {
	Address    string   `json:"address"`
	Allocation int64    `json:"allocation"`
	Siblings   []string `json:"siblings"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}
