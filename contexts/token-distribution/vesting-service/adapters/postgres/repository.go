package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tokenvault/contexts/token-distribution/vesting-service/domain/entities"
	domainerrors "tokenvault/contexts/token-distribution/vesting-service/domain/errors"
	"tokenvault/contexts/token-distribution/vesting-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateSchedule(
	ctx context.Context,
	schedule entities.VestingSchedule,
	allocations []entities.VestingAllocation,
) error {
	scheduleRow := scheduleModelFromEntity(schedule)
	allocationRows := make([]vestingAllocationModel, 0, len(allocations))
	for _, allocation := range allocations {
		allocationRows = append(allocationRows, allocationModelFromEntity(allocation))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&scheduleRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrScheduleExists
			}
			return err
		}
		if len(allocationRows) > 0 {
			if err := tx.CreateInBatches(&allocationRows, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetSchedule(ctx context.Context, scheduleID string) (entities.VestingSchedule, error) {
	var row vestingScheduleModel
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VestingSchedule{}, domainerrors.ErrScheduleNotFound
		}
		return entities.VestingSchedule{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetScheduleByRound(ctx context.Context, roundID string) (entities.VestingSchedule, error) {
	var row vestingScheduleModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VestingSchedule{}, domainerrors.ErrScheduleNotFound
		}
		return entities.VestingSchedule{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SetScheduleTxReference(ctx context.Context, scheduleID string, txReference string) error {
	result := r.db.WithContext(ctx).
		Model(&vestingScheduleModel{}).
		Where("schedule_id = ?", strings.TrimSpace(scheduleID)).
		Updates(map[string]any{
			"tx_reference": strings.TrimSpace(txReference),
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrScheduleNotFound
	}
	return nil
}

// TransitionScheduleStatus guards on the current status so concurrent sweeps
// cannot double-apply a transition.
func (r *Repository) TransitionScheduleStatus(
	ctx context.Context,
	scheduleID string,
	from entities.ScheduleStatus,
	to entities.ScheduleStatus,
	at time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&vestingScheduleModel{}).
		Where("schedule_id = ? AND status = ?", strings.TrimSpace(scheduleID), string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidStateTransition
	}
	return nil
}

func (r *Repository) ListPendingSchedules(ctx context.Context, limit int) ([]entities.VestingSchedule, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []vestingScheduleModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.ScheduleStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.VestingSchedule, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetAllocation(
	ctx context.Context,
	scheduleID string,
	walletAddress string,
) (entities.VestingAllocation, error) {
	var row vestingAllocationModel
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND wallet_address = ?",
			strings.TrimSpace(scheduleID),
			strings.ToLower(strings.TrimSpace(walletAddress)),
		).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VestingAllocation{}, domainerrors.ErrAllocationNotFound
		}
		return entities.VestingAllocation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAllocationByID(ctx context.Context, allocationID string) (entities.VestingAllocation, error) {
	var row vestingAllocationModel
	err := r.db.WithContext(ctx).
		Where("allocation_id = ?", strings.TrimSpace(allocationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VestingAllocation{}, domainerrors.ErrAllocationNotFound
		}
		return entities.VestingAllocation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateClaim(ctx context.Context, claim entities.VestingClaim) error {
	row := claimModelFromEntity(claim)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateClaim
		}
		return err
	}
	return nil
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.VestingClaim, error) {
	var row vestingClaimModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VestingClaim{}, domainerrors.ErrClaimNotFound
		}
		return entities.VestingClaim{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetClaimByIdempotencyKey(ctx context.Context, key string) (entities.VestingClaim, error) {
	var row vestingClaimModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VestingClaim{}, domainerrors.ErrClaimNotFound
		}
		return entities.VestingClaim{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SetClaimTxReference(ctx context.Context, claimID string, txReference string) error {
	result := r.db.WithContext(ctx).
		Model(&vestingClaimModel{}).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Updates(map[string]any{
			"tx_reference": strings.TrimSpace(txReference),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrClaimNotFound
	}
	return nil
}

func (r *Repository) ListPendingClaims(ctx context.Context, limit int) ([]entities.VestingClaim, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []vestingClaimModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.ClaimStatusPending)).
		Order("requested_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.VestingClaim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListClaims(ctx context.Context, allocationID string) ([]entities.VestingClaim, error) {
	var rows []vestingClaimModel
	if err := r.db.WithContext(ctx).
		Where("allocation_id = ?", strings.TrimSpace(allocationID)).
		Order("requested_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.VestingClaim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ConfirmClaim settles the claim and applies the allocation counters in one
// transaction. Both writes are conditional: the claim must still be PENDING
// and the allocation must not overdraw its total.
func (r *Repository) ConfirmClaim(ctx context.Context, claim entities.VestingClaim, at time.Time) error {
	settledAt := at.UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimResult := tx.Model(&vestingClaimModel{}).
			Where("claim_id = ? AND status = ?",
				strings.TrimSpace(claim.ID), string(entities.ClaimStatusPending)).
			Updates(map[string]any{
				"status":     string(entities.ClaimStatusConfirmed),
				"settled_at": settledAt,
			})
		if claimResult.Error != nil {
			return claimResult.Error
		}
		if claimResult.RowsAffected == 0 {
			return domainerrors.ErrClaimNotPending
		}

		allocationResult := tx.Model(&vestingAllocationModel{}).
			Where("allocation_id = ? AND claimed_tokens + ? <= allocation_tokens",
				strings.TrimSpace(claim.AllocationID), claim.ClaimAmount).
			Updates(map[string]any{
				"claimed_tokens": gorm.Expr("claimed_tokens + ?", claim.ClaimAmount),
				"total_claims":   gorm.Expr("total_claims + 1"),
				"last_claim_at":  settledAt,
				"updated_at":     settledAt,
			})
		if allocationResult.Error != nil {
			return allocationResult.Error
		}
		if allocationResult.RowsAffected == 0 {
			return domainerrors.ErrAllocationOverdrawn
		}
		return nil
	})
}

func (r *Repository) FailClaim(ctx context.Context, claimID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&vestingClaimModel{}).
		Where("claim_id = ? AND status = ?",
			strings.TrimSpace(claimID), string(entities.ClaimStatusPending)).
		Updates(map[string]any{
			"status":     string(entities.ClaimStatusFailed),
			"settled_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrClaimNotPending
	}
	return nil
}

func (r *Repository) ListPendingLocks(ctx context.Context, limit int) ([]entities.LiquidityLock, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []liquidityLockModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.LockStatusPending)).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.LiquidityLock, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ConfirmLock(ctx context.Context, lockID string, at time.Time) error {
	return r.transitionLock(ctx, lockID, entities.LockStatusLocked, at)
}

func (r *Repository) FailLock(ctx context.Context, lockID string, at time.Time) error {
	return r.transitionLock(ctx, lockID, entities.LockStatusFailed, at)
}

func (r *Repository) transitionLock(
	ctx context.Context,
	lockID string,
	to entities.LockStatus,
	at time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&liquidityLockModel{}).
		Where("lock_id = ? AND status = ?",
			strings.TrimSpace(lockID), string(entities.LockStatusPending)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrLockNotPending
	}
	return nil
}

func (r *Repository) GetRound(ctx context.Context, roundID string) (entities.Round, error) {
	var row roundModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Round{}, domainerrors.ErrRoundNotFound
		}
		return entities.Round{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SetVestingStatus(
	ctx context.Context,
	roundID string,
	status entities.RoundVestingStatus,
) error {
	result := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Updates(map[string]any{"vesting_status": string(status)})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRoundNotFound
	}
	return nil
}

func (r *Repository) SetLockStatus(
	ctx context.Context,
	roundID string,
	status entities.RoundLockStatus,
) error {
	result := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Updates(map[string]any{"lock_status": string(status)})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRoundNotFound
	}
	return nil
}

// GateSuccess is the single conditional write behind the round success gate.
// All three preconditions plus the not-yet-fired check live in the WHERE
// clause; RowsAffected tells the caller whether this call landed it.
func (r *Repository) GateSuccess(ctx context.Context, roundID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&roundModel{}).
		Where(
			"round_id = ? AND result = ? AND vesting_status = ? AND lock_status = ? AND success_gated_at IS NULL",
			strings.TrimSpace(roundID),
			string(entities.RoundResultSuccess),
			string(entities.RoundVestingConfirmed),
			string(entities.RoundLockLocked),
		).
		Updates(map[string]any{"success_gated_at": at.UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidStateTransition
	}
	return nil
}

type vestingScheduleModel struct {
	ScheduleID    string    `gorm:"column:schedule_id;primaryKey"`
	RoundID       string    `gorm:"column:round_id;uniqueIndex"`
	VaultID       string    `gorm:"column:vault_id"`
	TgePercentage int       `gorm:"column:tge_percentage"`
	CliffMonths   int       `gorm:"column:cliff_months"`
	VestingMonths int       `gorm:"column:vesting_months"`
	IntervalType  string    `gorm:"column:interval_type"`
	TgeAt         time.Time `gorm:"column:tge_at"`
	Status        string    `gorm:"column:status"`
	TxReference   string    `gorm:"column:tx_reference"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (vestingScheduleModel) TableName() string {
	return "vesting_schedules"
}

func scheduleModelFromEntity(item entities.VestingSchedule) vestingScheduleModel {
	return vestingScheduleModel{
		ScheduleID:    strings.TrimSpace(item.ID),
		RoundID:       strings.TrimSpace(item.RoundID),
		VaultID:       strings.TrimSpace(item.VaultID),
		TgePercentage: item.TgePercentage,
		CliffMonths:   item.CliffMonths,
		VestingMonths: item.VestingMonths,
		IntervalType:  string(item.IntervalType),
		TgeAt:         item.TgeAt.UTC(),
		Status:        string(item.Status),
		TxReference:   strings.TrimSpace(item.TxReference),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m vestingScheduleModel) toEntity() entities.VestingSchedule {
	return entities.VestingSchedule{
		ID:            m.ScheduleID,
		RoundID:       m.RoundID,
		VaultID:       m.VaultID,
		TgePercentage: m.TgePercentage,
		CliffMonths:   m.CliffMonths,
		VestingMonths: m.VestingMonths,
		IntervalType:  entities.IntervalType(m.IntervalType),
		TgeAt:         m.TgeAt.UTC(),
		Status:        entities.ScheduleStatus(m.Status),
		TxReference:   m.TxReference,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type vestingAllocationModel struct {
	AllocationID     string     `gorm:"column:allocation_id;primaryKey"`
	ScheduleID       string     `gorm:"column:schedule_id;uniqueIndex:idx_allocations_schedule_wallet"`
	UserID           string     `gorm:"column:user_id"`
	WalletAddress    string     `gorm:"column:wallet_address;uniqueIndex:idx_allocations_schedule_wallet"`
	AllocationTokens int64      `gorm:"column:allocation_tokens"`
	ClaimedTokens    int64      `gorm:"column:claimed_tokens"`
	LastClaimAt      *time.Time `gorm:"column:last_claim_at"`
	TotalClaims      int        `gorm:"column:total_claims"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (vestingAllocationModel) TableName() string {
	return "vesting_allocations"
}

func allocationModelFromEntity(item entities.VestingAllocation) vestingAllocationModel {
	return vestingAllocationModel{
		AllocationID:     strings.TrimSpace(item.ID),
		ScheduleID:       strings.TrimSpace(item.ScheduleID),
		UserID:           strings.TrimSpace(item.UserID),
		WalletAddress:    strings.ToLower(strings.TrimSpace(item.WalletAddress)),
		AllocationTokens: item.AllocationTokens,
		ClaimedTokens:    item.ClaimedTokens,
		LastClaimAt:      normalizeOptionalTime(item.LastClaimAt),
		TotalClaims:      item.TotalClaims,
		UpdatedAt:        item.UpdatedAt.UTC(),
	}
}

func (m vestingAllocationModel) toEntity() entities.VestingAllocation {
	return entities.VestingAllocation{
		ID:               m.AllocationID,
		ScheduleID:       m.ScheduleID,
		UserID:           m.UserID,
		WalletAddress:    m.WalletAddress,
		AllocationTokens: m.AllocationTokens,
		ClaimedTokens:    m.ClaimedTokens,
		LastClaimAt:      normalizeOptionalTime(m.LastClaimAt),
		TotalClaims:      m.TotalClaims,
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type vestingClaimModel struct {
	ClaimID        string     `gorm:"column:claim_id;primaryKey"`
	AllocationID   string     `gorm:"column:allocation_id"`
	ScheduleID     string     `gorm:"column:schedule_id"`
	UserID         string     `gorm:"column:user_id"`
	WalletAddress  string     `gorm:"column:wallet_address"`
	Chain          string     `gorm:"column:chain"`
	ClaimAmount    int64      `gorm:"column:claim_amount"`
	Status         string     `gorm:"column:status"`
	IdempotencyKey string     `gorm:"column:idempotency_key;uniqueIndex"`
	TxReference    string     `gorm:"column:tx_reference"`
	RequestedAt    time.Time  `gorm:"column:requested_at"`
	SettledAt      *time.Time `gorm:"column:settled_at"`
}

func (vestingClaimModel) TableName() string {
	return "vesting_claims"
}

func claimModelFromEntity(item entities.VestingClaim) vestingClaimModel {
	return vestingClaimModel{
		ClaimID:        strings.TrimSpace(item.ID),
		AllocationID:   strings.TrimSpace(item.AllocationID),
		ScheduleID:     strings.TrimSpace(item.ScheduleID),
		UserID:         strings.TrimSpace(item.UserID),
		WalletAddress:  strings.ToLower(strings.TrimSpace(item.WalletAddress)),
		Chain:          strings.TrimSpace(item.Chain),
		ClaimAmount:    item.ClaimAmount,
		Status:         string(item.Status),
		IdempotencyKey: strings.TrimSpace(item.IdempotencyKey),
		TxReference:    strings.TrimSpace(item.TxReference),
		RequestedAt:    item.RequestedAt.UTC(),
		SettledAt:      normalizeOptionalTime(item.SettledAt),
	}
}

func (m vestingClaimModel) toEntity() entities.VestingClaim {
	return entities.VestingClaim{
		ID:             m.ClaimID,
		AllocationID:   m.AllocationID,
		ScheduleID:     m.ScheduleID,
		UserID:         m.UserID,
		WalletAddress:  m.WalletAddress,
		Chain:          m.Chain,
		ClaimAmount:    m.ClaimAmount,
		Status:         entities.ClaimStatus(m.Status),
		IdempotencyKey: m.IdempotencyKey,
		TxReference:    m.TxReference,
		RequestedAt:    m.RequestedAt.UTC(),
		SettledAt:      normalizeOptionalTime(m.SettledAt),
	}
}

type liquidityLockModel struct {
	LockID      string    `gorm:"column:lock_id;primaryKey"`
	RoundID     string    `gorm:"column:round_id"`
	Status      string    `gorm:"column:status"`
	TxReference string    `gorm:"column:tx_reference"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (liquidityLockModel) TableName() string {
	return "liquidity_locks"
}

func (m liquidityLockModel) toEntity() entities.LiquidityLock {
	return entities.LiquidityLock{
		ID:          m.LockID,
		RoundID:     m.RoundID,
		Status:      entities.LockStatus(m.Status),
		TxReference: m.TxReference,
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type roundModel struct {
	RoundID        string     `gorm:"column:round_id;primaryKey"`
	Result         string     `gorm:"column:result"`
	VestingStatus  string     `gorm:"column:vesting_status"`
	LockStatus     string     `gorm:"column:lock_status"`
	SuccessGatedAt *time.Time `gorm:"column:success_gated_at"`
}

func (roundModel) TableName() string {
	return "rounds"
}

func (m roundModel) toEntity() entities.Round {
	return entities.Round{
		ID:             m.RoundID,
		Result:         entities.RoundResult(m.Result),
		VestingStatus:  entities.RoundVestingStatus(m.VestingStatus),
		LockStatus:     entities.RoundLockStatus(m.LockStatus),
		SuccessGatedAt: normalizeOptionalTime(m.SuccessGatedAt),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "vesting_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ScheduleRepository   = (*Repository)(nil)
	_ ports.AllocationRepository = (*Repository)(nil)
	_ ports.ClaimRepository      = (*Repository)(nil)
	_ ports.LockRepository       = (*Repository)(nil)
	_ ports.RoundRepository      = (*Repository)(nil)
	_ ports.OutboxWriter         = (*Repository)(nil)
	_ ports.OutboxRepository     = (*Repository)(nil)
)
