package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/ports"
)

// Store is the in-memory counterpart of the postgres repository. It mirrors
// the conditional-update semantics exactly so the state machine behaves the
// same under test as in production.
type Store struct {
	mu sync.RWMutex

	schedules       map[string]entities.VestingSchedule
	schedulesByRnd  map[string]string
	allocations     map[string]entities.VestingAllocation
	allocationIndex map[string]string
	claims          map[string]entities.VestingClaim
	claimsByKey     map[string]string
	locks           map[string]entities.LiquidityLock
	rounds          map[string]entities.Round
	outbox          []outboxRow

	commitments map[string]ports.CommitmentView
	leaves      map[string][]ports.AllocationLeafView
	proofs      map[string]map[string]ports.ProofView
}

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

func NewStore() *Store {
	return &Store{
		schedules:       make(map[string]entities.VestingSchedule),
		schedulesByRnd:  make(map[string]string),
		allocations:     make(map[string]entities.VestingAllocation),
		allocationIndex: make(map[string]string),
		claims:          make(map[string]entities.VestingClaim),
		claimsByKey:     make(map[string]string),
		locks:           make(map[string]entities.LiquidityLock),
		rounds:          make(map[string]entities.Round),
		commitments:     make(map[string]ports.CommitmentView),
		leaves:          make(map[string][]ports.AllocationLeafView),
		proofs:          make(map[string]map[string]ports.ProofView),
	}
}

func allocationKey(scheduleID, walletAddress string) string {
	return scheduleID + "|" + walletAddress
}

func (s *Store) CreateSchedule(
	_ context.Context,
	schedule entities.VestingSchedule,
	allocations []entities.VestingAllocation,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedulesByRnd[schedule.RoundID]; ok {
		return domainerrors.ErrScheduleExists
	}
	if _, ok := s.schedules[schedule.ID]; ok {
		return domainerrors.ErrScheduleExists
	}
	s.schedules[schedule.ID] = schedule
	s.schedulesByRnd[schedule.RoundID] = schedule.ID
	for _, allocation := range allocations {
		s.allocations[allocation.ID] = allocation
		s.allocationIndex[allocationKey(allocation.ScheduleID, allocation.WalletAddress)] = allocation.ID
	}
	return nil
}

func (s *Store) GetSchedule(_ context.Context, scheduleID string) (entities.VestingSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schedule, ok := s.schedules[scheduleID]
	if !ok {
		return entities.VestingSchedule{}, domainerrors.ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *Store) GetScheduleByRound(_ context.Context, roundID string) (entities.VestingSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scheduleID, ok := s.schedulesByRnd[roundID]
	if !ok {
		return entities.VestingSchedule{}, domainerrors.ErrScheduleNotFound
	}
	return s.schedules[scheduleID], nil
}

func (s *Store) SetScheduleTxReference(_ context.Context, scheduleID string, txReference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[scheduleID]
	if !ok {
		return domainerrors.ErrScheduleNotFound
	}
	schedule.TxReference = txReference
	s.schedules[scheduleID] = schedule
	return nil
}

func (s *Store) TransitionScheduleStatus(
	_ context.Context,
	scheduleID string,
	from entities.ScheduleStatus,
	to entities.ScheduleStatus,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[scheduleID]
	if !ok || schedule.Status != from {
		return domainerrors.ErrInvalidStateTransition
	}
	schedule.Status = to
	schedule.UpdatedAt = at.UTC()
	s.schedules[scheduleID] = schedule
	return nil
}

func (s *Store) ListPendingSchedules(_ context.Context, limit int) ([]entities.VestingSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.VestingSchedule, 0)
	for _, schedule := range s.schedules {
		if schedule.Status == entities.ScheduleStatusPending {
			items = append(items, schedule)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetAllocation(
	_ context.Context,
	scheduleID string,
	walletAddress string,
) (entities.VestingAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocationID, ok := s.allocationIndex[allocationKey(scheduleID, walletAddress)]
	if !ok {
		return entities.VestingAllocation{}, domainerrors.ErrAllocationNotFound
	}
	return s.allocations[allocationID], nil
}

func (s *Store) GetAllocationByID(_ context.Context, allocationID string) (entities.VestingAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocation, ok := s.allocations[allocationID]
	if !ok {
		return entities.VestingAllocation{}, domainerrors.ErrAllocationNotFound
	}
	return allocation, nil
}

func (s *Store) CreateClaim(_ context.Context, claim entities.VestingClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claimsByKey[claim.IdempotencyKey]; ok {
		return domainerrors.ErrDuplicateClaim
	}
	s.claims[claim.ID] = claim
	s.claimsByKey[claim.IdempotencyKey] = claim.ID
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.VestingClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return entities.VestingClaim{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) GetClaimByIdempotencyKey(_ context.Context, key string) (entities.VestingClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claimID, ok := s.claimsByKey[key]
	if !ok {
		return entities.VestingClaim{}, domainerrors.ErrClaimNotFound
	}
	return s.claims[claimID], nil
}

func (s *Store) SetClaimTxReference(_ context.Context, claimID string, txReference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return domainerrors.ErrClaimNotFound
	}
	claim.TxReference = txReference
	s.claims[claimID] = claim
	return nil
}

func (s *Store) ListPendingClaims(_ context.Context, limit int) ([]entities.VestingClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.VestingClaim, 0)
	for _, claim := range s.claims {
		if claim.Status == entities.ClaimStatusPending {
			items = append(items, claim)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RequestedAt.Before(items[j].RequestedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListClaims(_ context.Context, allocationID string) ([]entities.VestingClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.VestingClaim, 0)
	for _, claim := range s.claims {
		if claim.AllocationID == allocationID {
			items = append(items, claim)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RequestedAt.Before(items[j].RequestedAt)
	})
	return items, nil
}

func (s *Store) ConfirmClaim(_ context.Context, claim entities.VestingClaim, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.claims[claim.ID]
	if !ok || current.Status != entities.ClaimStatusPending {
		return domainerrors.ErrClaimNotPending
	}
	allocation, ok := s.allocations[claim.AllocationID]
	if !ok || allocation.ClaimedTokens+claim.ClaimAmount > allocation.AllocationTokens {
		return domainerrors.ErrAllocationOverdrawn
	}

	settledAt := at.UTC()
	current.Status = entities.ClaimStatusConfirmed
	current.SettledAt = &settledAt
	s.claims[claim.ID] = current

	allocation.ClaimedTokens += claim.ClaimAmount
	allocation.TotalClaims++
	allocation.LastClaimAt = &settledAt
	allocation.UpdatedAt = settledAt
	s.allocations[claim.AllocationID] = allocation
	return nil
}

func (s *Store) FailClaim(_ context.Context, claimID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok || claim.Status != entities.ClaimStatusPending {
		return domainerrors.ErrClaimNotPending
	}
	settledAt := at.UTC()
	claim.Status = entities.ClaimStatusFailed
	claim.SettledAt = &settledAt
	s.claims[claimID] = claim
	return nil
}

func (s *Store) ListPendingLocks(_ context.Context, limit int) ([]entities.LiquidityLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.LiquidityLock, 0)
	for _, lock := range s.locks {
		if lock.Status == entities.LockStatusPending {
			items = append(items, lock)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UpdatedAt.Before(items[j].UpdatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ConfirmLock(_ context.Context, lockID string, at time.Time) error {
	return s.transitionLock(lockID, entities.LockStatusLocked, at)
}

func (s *Store) FailLock(_ context.Context, lockID string, at time.Time) error {
	return s.transitionLock(lockID, entities.LockStatusFailed, at)
}

func (s *Store) transitionLock(lockID string, to entities.LockStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[lockID]
	if !ok || lock.Status != entities.LockStatusPending {
		return domainerrors.ErrLockNotPending
	}
	lock.Status = to
	lock.UpdatedAt = at.UTC()
	s.locks[lockID] = lock
	return nil
}

func (s *Store) GetRound(_ context.Context, roundID string) (entities.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return entities.Round{}, domainerrors.ErrRoundNotFound
	}
	return round, nil
}

func (s *Store) SetVestingStatus(_ context.Context, roundID string, status entities.RoundVestingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return domainerrors.ErrRoundNotFound
	}
	round.VestingStatus = status
	s.rounds[roundID] = round
	return nil
}

func (s *Store) SetLockStatus(_ context.Context, roundID string, status entities.RoundLockStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return domainerrors.ErrRoundNotFound
	}
	round.LockStatus = status
	s.rounds[roundID] = round
	return nil
}

func (s *Store) GateSuccess(_ context.Context, roundID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return false, nil
	}
	if round.Result != entities.RoundResultSuccess ||
		round.VestingStatus != entities.RoundVestingConfirmed ||
		round.LockStatus != entities.RoundLockLocked ||
		round.SuccessGatedAt != nil {
		return false, nil
	}
	gatedAt := at.UTC()
	round.SuccessGatedAt = &gatedAt
	s.rounds[roundID] = round
	return true, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := envelopePayload(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrInvalidStateTransition
}

func (s *Store) GetCommitment(_ context.Context, vaultID string) (ports.CommitmentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commitment, ok := s.commitments[vaultID]
	if !ok {
		return ports.CommitmentView{}, domainerrors.ErrEmptyCommitment
	}
	return commitment, nil
}

func (s *Store) ListLeaves(_ context.Context, vaultID string) ([]ports.AllocationLeafView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AllocationLeafView(nil), s.leaves[vaultID]...), nil
}

func (s *Store) GetProof(_ context.Context, vaultID string, address string) (ports.ProofView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proof, ok := s.proofs[vaultID][address]
	if !ok {
		return ports.ProofView{}, domainerrors.ErrAllocationNotFound
	}
	return proof, nil
}

func envelopePayload(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}

// SeedRound installs a round row for gate testing.
func (s *Store) SeedRound(round entities.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[round.ID] = round
}

// SeedLock installs a liquidity lock row.
func (s *Store) SeedLock(lock entities.LiquidityLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[lock.ID] = lock
}

// SeedCommitment installs a commitment snapshot with its leaves and proofs.
func (s *Store) SeedCommitment(
	commitment ports.CommitmentView,
	leaves []ports.AllocationLeafView,
	proofs []ports.ProofView,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments[commitment.VaultID] = commitment
	s.leaves[commitment.VaultID] = append([]ports.AllocationLeafView(nil), leaves...)
	byAddress := make(map[string]ports.ProofView, len(proofs))
	for _, proof := range proofs {
		byAddress[proof.Address] = proof
	}
	s.proofs[commitment.VaultID] = byAddress
}

var (
	_ ports.ScheduleRepository   = (*Store)(nil)
	_ ports.AllocationRepository = (*Store)(nil)
	_ ports.ClaimRepository      = (*Store)(nil)
	_ ports.LockRepository       = (*Store)(nil)
	_ ports.RoundRepository      = (*Store)(nil)
	_ ports.OutboxWriter         = (*Store)(nil)
	_ ports.OutboxRepository     = (*Store)(nil)
	_ ports.CommitmentReader     = (*Store)(nil)
)
