package entities

import "time"

type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "PENDING"
	ScheduleStatusConfirmed ScheduleStatus = "CONFIRMED"
	ScheduleStatusFailed    ScheduleStatus = "FAILED"
	ScheduleStatusPaused    ScheduleStatus = "PAUSED"
)

type IntervalType string

const (
	IntervalDaily   IntervalType = "DAILY"
	IntervalMonthly IntervalType = "MONTHLY"
)

// VestingSchedule parameterizes the time-based release for one round.
// Status transitions are one-directional (PENDING -> CONFIRMED|FAILED)
// except PAUSED, which is administrative and reversible to CONFIRMED.
type VestingSchedule struct {
	ID            string
	RoundID       string
	VaultID       string
	TgePercentage int
	CliffMonths   int
	VestingMonths int
	IntervalType  IntervalType
	TgeAt         time.Time
	Status        ScheduleStatus
	TxReference   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
