package services

import (
	"math/big"
	"time"

	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
)

// UnlockedAmount converts elapsed time into the cumulative unlocked token
// amount for one allocation. It is a pure function of (schedule, allocation,
// now) and uses integer arithmetic only.
//
// The release is a step function: the TGE portion unlocks at TgeAt, nothing
// further unlocks until the cliff ends, then the remainder unlocks in whole
// daily or monthly steps. Partial days/months round down. MONTHLY intervals
// produce deliberately chunky unlocks; this is the contract, not an
// approximation of linear release.
func UnlockedAmount(
	schedule entities.VestingSchedule,
	allocationTokens int64,
	now time.Time,
) int64 {
	if allocationTokens <= 0 {
		return 0
	}
	now = now.UTC()
	tgeAt := schedule.TgeAt.UTC()
	if now.Before(tgeAt) {
		return 0
	}

	tgeAmount := mulDiv(allocationTokens, int64(schedule.TgePercentage), 100)
	remaining := allocationTokens - tgeAmount

	cliffEnd := tgeAt.AddDate(0, schedule.CliffMonths, 0)
	if now.Before(cliffEnd) {
		return tgeAmount
	}
	if schedule.VestingMonths <= 0 || remaining <= 0 {
		return allocationTokens
	}

	var vested int64
	switch schedule.IntervalType {
	case entities.IntervalDaily:
		vestingEnd := cliffEnd.AddDate(0, schedule.VestingMonths, 0)
		totalDays := wholeDaysBetween(cliffEnd, vestingEnd)
		elapsedDays := wholeDaysBetween(cliffEnd, now)
		if totalDays <= 0 || elapsedDays >= totalDays {
			return allocationTokens
		}
		vested = mulDiv(remaining, elapsedDays, totalDays)
	default:
		elapsedMonths := wholeMonthsBetween(cliffEnd, now)
		if elapsedMonths >= int64(schedule.VestingMonths) {
			return allocationTokens
		}
		vested = mulDiv(remaining, elapsedMonths, int64(schedule.VestingMonths))
	}

	unlocked := tgeAmount + vested
	if unlocked > allocationTokens {
		return allocationTokens
	}
	return unlocked
}

// Claimable is the unlocked amount minus tokens already claimed, clamped at
// zero so manual data corrections can never produce a negative delta.
func Claimable(
	schedule entities.VestingSchedule,
	allocationTokens int64,
	claimedTokens int64,
	now time.Time,
) int64 {
	claimable := UnlockedAmount(schedule, allocationTokens, now) - claimedTokens
	if claimable < 0 {
		return 0
	}
	return claimable
}

// mulDiv computes floor(a * b / c) without intermediate overflow.
func mulDiv(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	product := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	product.Quo(product, big.NewInt(c))
	return product.Int64()
}

// wholeDaysBetween counts full elapsed days; partial days round down.
func wholeDaysBetween(from, to time.Time) int64 {
	if to.Before(from) {
		return 0
	}
	return int64(to.Sub(from) / (24 * time.Hour))
}

// wholeMonthsBetween counts full elapsed calendar months using calendar
// arithmetic, not fixed 30-day blocks.
func wholeMonthsBetween(from, to time.Time) int64 {
	if to.Before(from) {
		return 0
	}
	months := int64(to.Year()-from.Year())*12 + int64(to.Month()-from.Month())
	// AddDate normalizes month-end overflow (Jan 31 + 1mo = Mar 3), so a
	// single decrement is not always enough.
	for months > 0 && from.AddDate(0, int(months), 0).After(to) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
