package unit

import (
	"context"
	"errors"
	"testing"

	allocationmemory "tokenvault/contexts/token-distribution/allocation-service/adapters/memory"
	allocationcommands "tokenvault/contexts/token-distribution/allocation-service/application/commands"
	allocationqueries "tokenvault/contexts/token-distribution/allocation-service/application/queries"
	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	allocationerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
)

func newAllocationUseCases(
	seed []entities.Contribution,
) (*allocationmemory.Store, allocationcommands.UseCase, allocationqueries.UseCase) {
	store := allocationmemory.NewStore(seed)
	commands := allocationcommands.UseCase{
		Repository:    store,
		Contributions: store,
		Clock:         store,
		Salts:         store,
	}
	queries := allocationqueries.UseCase{Repository: store}
	return store, commands, queries
}

func confirmedContribution(roundID, address string, amount int64) entities.Contribution {
	return entities.Contribution{
		RoundID: roundID,
		Address: address,
		Amount:  amount,
		Status:  entities.ContributionStatusConfirmed,
	}
}

func TestAllocationFinalizeRoundPublishesCommitment(t *testing.T) {
	_, commands, queries := newAllocationUseCases([]entities.Contribution{
		confirmedContribution("round-1", "0xAAA", 600),
		confirmedContribution("round-1", "0xbbb", 400),
	})

	commitment, err := commands.FinalizeRound(context.Background(), allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 1_000,
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if commitment.Root == "" || commitment.ScheduleSalt == "" {
		t.Fatalf("expected published root and salt, got %+v", commitment)
	}
	if commitment.LeafCount != 2 || commitment.TotalAllocation != 1_000 {
		t.Fatalf("unexpected commitment shape: %+v", commitment)
	}
	if commitment.FinalizedAt.IsZero() {
		t.Fatalf("expected finalization cutoff timestamp")
	}

	// Every beneficiary can fetch a proof and verify it against the root.
	for _, address := range []string{"0xaaa", "0xbbb"} {
		proof, err := queries.GetProof(context.Background(), "vault-1", address)
		if err != nil {
			t.Fatalf("proof lookup for %s failed: %v", address, err)
		}
		valid, err := queries.Verify(context.Background(), allocationqueries.VerifyInput{
			VaultID:    "vault-1",
			Address:    address,
			Allocation: proof.Allocation,
			Siblings:   proof.Siblings,
		})
		if err != nil {
			t.Fatalf("verify for %s failed: %v", address, err)
		}
		if !valid {
			t.Fatalf("expected valid proof for %s", address)
		}
	}
}

func TestAllocationFinalizeRoundProofLookupCanonicalizesAddress(t *testing.T) {
	_, commands, queries := newAllocationUseCases([]entities.Contribution{
		confirmedContribution("round-1", "0xAbCd", 1_000),
	})
	if _, err := commands.FinalizeRound(context.Background(), allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 500,
	}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	proof, err := queries.GetProof(context.Background(), "vault-1", "  0xABCD ")
	if err != nil {
		t.Fatalf("expected canonicalized lookup to succeed: %v", err)
	}
	if proof.Address != "0xabcd" || proof.Allocation != 500 {
		t.Fatalf("unexpected proof: %+v", proof)
	}
}

func TestAllocationFinalizeRoundDuplicateConflicts(t *testing.T) {
	_, commands, _ := newAllocationUseCases([]entities.Contribution{
		confirmedContribution("round-1", "0xaaa", 100),
	})
	cmd := allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 100,
	}
	if _, err := commands.FinalizeRound(context.Background(), cmd); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}
	if _, err := commands.FinalizeRound(context.Background(), cmd); !errors.Is(err, allocationerrors.ErrCommitmentExists) {
		t.Fatalf("expected ErrCommitmentExists for same vault, got %v", err)
	}

	// The round is committed even under a fresh vault identity.
	cmd.VaultID = "vault-2"
	if _, err := commands.FinalizeRound(context.Background(), cmd); !errors.Is(err, allocationerrors.ErrCommitmentExists) {
		t.Fatalf("expected ErrCommitmentExists for same round, got %v", err)
	}
}

func TestAllocationFinalizeRoundWithoutConfirmedContributions(t *testing.T) {
	_, commands, _ := newAllocationUseCases([]entities.Contribution{
		{RoundID: "round-1", Address: "0xaaa", Amount: 100, Status: entities.ContributionStatusPending},
	})
	_, err := commands.FinalizeRound(context.Background(), allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 100,
	})
	if !errors.Is(err, allocationerrors.ErrNoConfirmedContributions) {
		t.Fatalf("expected ErrNoConfirmedContributions, got %v", err)
	}
}

func TestAllocationFinalizeRoundRejectsInvalidInput(t *testing.T) {
	_, commands, _ := newAllocationUseCases(nil)
	_, err := commands.FinalizeRound(context.Background(), allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 0,
	})
	if !errors.Is(err, allocationerrors.ErrInvalidFinalizeInput) {
		t.Fatalf("expected ErrInvalidFinalizeInput, got %v", err)
	}
}

func TestAllocationVerifyRejectsTamperedClaims(t *testing.T) {
	_, commands, queries := newAllocationUseCases([]entities.Contribution{
		confirmedContribution("round-1", "0xaaa", 600),
		confirmedContribution("round-1", "0xbbb", 400),
	})
	if _, err := commands.FinalizeRound(context.Background(), allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 1_000,
	}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	proof, err := queries.GetProof(context.Background(), "vault-1", "0xaaa")
	if err != nil {
		t.Fatalf("proof lookup failed: %v", err)
	}

	valid, err := queries.Verify(context.Background(), allocationqueries.VerifyInput{
		VaultID:    "vault-1",
		Address:    "0xaaa",
		Allocation: proof.Allocation + 1,
		Siblings:   proof.Siblings,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if valid {
		t.Fatalf("tampered allocation must not verify")
	}

	valid, err = queries.Verify(context.Background(), allocationqueries.VerifyInput{
		VaultID:    "vault-1",
		Address:    "0xccc",
		Allocation: proof.Allocation,
		Siblings:   proof.Siblings,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if valid {
		t.Fatalf("proof must be bound to its address")
	}
}

func TestAllocationVerifyRejectsMalformedSiblings(t *testing.T) {
	_, commands, queries := newAllocationUseCases([]entities.Contribution{
		confirmedContribution("round-1", "0xaaa", 100),
	})
	if _, err := commands.FinalizeRound(context.Background(), allocationcommands.FinalizeRoundCommand{
		RoundID:       "round-1",
		VaultID:       "vault-1",
		ChainID:       1,
		TokensForSale: 100,
	}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	_, err := queries.Verify(context.Background(), allocationqueries.VerifyInput{
		VaultID:    "vault-1",
		Address:    "0xaaa",
		Allocation: 100,
		Siblings:   []string{"not-hex"},
	})
	if !errors.Is(err, allocationerrors.ErrInvalidVerifyInput) {
		t.Fatalf("expected ErrInvalidVerifyInput, got %v", err)
	}
}
