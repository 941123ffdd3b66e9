package services

import (
	"math/big"
	"sort"
	"strings"

	"tokenvault/contexts/token-distribution/allocation-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/allocation-service/domain/errors"
)

// CanonicalAddress normalizes an account identifier to the single
// representation used for grouping, leaf hashing, and proof lookup.
func CanonicalAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// AggregateAllocations deduplicates and sums confirmed contributions per
// canonical address, then converts each sum into a token allocation with
// allocation = floor(contribution * tokensForSale / totalRaised).
//
// All arithmetic runs through big.Int so intermediate products cannot
// overflow. The leaf ordering (canonical address ascending) is part of the
// commitment contract and must be reproducible bit-for-bit by verifiers.
func AggregateAllocations(
	contributions []entities.Contribution,
	tokensForSale int64,
) ([]entities.AllocationLeaf, error) {
	if tokensForSale <= 0 {
		return nil, domainerrors.ErrInvalidFinalizeInput
	}

	sums := make(map[string]*big.Int)
	totalRaised := new(big.Int)
	for _, contribution := range contributions {
		address := CanonicalAddress(contribution.Address)
		if address == "" || contribution.Amount <= 0 {
			continue
		}
		amount := big.NewInt(contribution.Amount)
		if existing, ok := sums[address]; ok {
			existing.Add(existing, amount)
		} else {
			sums[address] = new(big.Int).Set(amount)
		}
		totalRaised.Add(totalRaised, amount)
	}
	if totalRaised.Sign() == 0 {
		return nil, domainerrors.ErrZeroTotalRaised
	}

	sale := big.NewInt(tokensForSale)
	leaves := make([]entities.AllocationLeaf, 0, len(sums))
	for address, contributed := range sums {
		allocation := new(big.Int).Mul(contributed, sale)
		allocation.Quo(allocation, totalRaised)
		leaves = append(leaves, entities.AllocationLeaf{
			Address:    address,
			Allocation: allocation.Int64(),
		})
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].Address < leaves[j].Address
	})
	return leaves, nil
}

// TotalAllocation sums leaf allocations. Floor division leaves a rounding
// remainder against tokensForSale; the remainder is never topped up.
func TotalAllocation(leaves []entities.AllocationLeaf) int64 {
	var total int64
	for _, leaf := range leaves {
		total += leaf.Allocation
	}
	return total
}
