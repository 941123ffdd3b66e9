package services

import (
	"errors"
	"testing"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
)

func confirmed(address string, amount int64) entities.Contribution {
	return entities.Contribution{
		Address: address,
		Amount:  amount,
		Status:  entities.ContributionStatusConfirmed,
	}
}

func TestAggregateAllocationsFloorDivision(t *testing.T) {
	leaves, err := AggregateAllocations([]entities.Contribution{
		confirmed("0xAaa", 500_000),
		confirmed("0xBbb", 400_000),
	}, 1_000_000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(leaves))
	}
	if leaves[0].Address != "0xaaa" || leaves[0].Allocation != 555_555 {
		t.Fatalf("unexpected first leaf: %+v", leaves[0])
	}
	if leaves[1].Address != "0xbbb" || leaves[1].Allocation != 444_444 {
		t.Fatalf("unexpected second leaf: %+v", leaves[1])
	}
	if total := TotalAllocation(leaves); total != 999_999 {
		t.Fatalf("expected rounding dust of 1, total %d", total)
	}
}

func TestAggregateAllocationsMergesDuplicateAddresses(t *testing.T) {
	leaves, err := AggregateAllocations([]entities.Contribution{
		confirmed("0xAAA", 100),
		confirmed(" 0xaaa ", 200),
		confirmed("0xbbb", 700),
	}, 1_000)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(leaves) != 2 {
		t.Fatalf("expected deduplicated leaves, got %d", len(leaves))
	}
	if leaves[0].Allocation != 300 {
		t.Fatalf("expected merged allocation 300, got %d", leaves[0].Allocation)
	}
}

func TestAggregateAllocationsDeterministicOrder(t *testing.T) {
	first, err := AggregateAllocations([]entities.Contribution{
		confirmed("0xccc", 10),
		confirmed("0xaaa", 30),
		confirmed("0xbbb", 60),
	}, 100)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	second, err := AggregateAllocations([]entities.Contribution{
		confirmed("0xbbb", 60),
		confirmed("0xaaa", 30),
		confirmed("0xccc", 10),
	}, 100)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("leaf %d differs across input orderings: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestAggregateAllocationsZeroRaised(t *testing.T) {
	_, err := AggregateAllocations(nil, 1_000)
	if !errors.Is(err, domainerrors.ErrZeroTotalRaised) {
		t.Fatalf("expected ErrZeroTotalRaised, got %v", err)
	}
}

func TestAggregateAllocationsRejectsNonPositiveSale(t *testing.T) {
	_, err := AggregateAllocations([]entities.Contribution{confirmed("0xaaa", 10)}, 0)
	if !errors.Is(err, domainerrors.ErrInvalidFinalizeInput) {
		t.Fatalf("expected ErrInvalidFinalizeInput, got %v", err)
	}
}

func TestAggregateAllocationsNoOverflowOnLargeAmounts(t *testing.T) {
	amount := int64(1) << 60
	leaves, err := AggregateAllocations([]entities.Contribution{
		confirmed("0xaaa", amount),
		confirmed("0xbbb", amount),
	}, amount)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	half := amount / 2
	for _, leaf := range leaves {
		if leaf.Allocation != half {
			t.Fatalf("expected %d per leaf, got %d", half, leaf.Allocation)
		}
	}
}
