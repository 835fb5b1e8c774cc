package data

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "Proofline/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotStatus represents the database ENUM type for ingredient lot status.
type LotStatus string

// Lot status constants.
const (
	LotStatusAvailable LotStatus = "available"
	LotStatusConsumed  LotStatus = "consumed"
	LotStatusExpired   LotStatus = "expired"
	LotStatusRecalled  LotStatus = "recalled"
)

// ValidLotStatus reports whether s is one of the known statuses.
func ValidLotStatus(s LotStatus) bool {
	switch s {
	case LotStatusAvailable, LotStatusConsumed, LotStatusExpired, LotStatusRecalled:
		return true
	default:
		return false
	}
}

// Scan implements sql.Scanner interface for LotStatus.
func (s *LotStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = LotStatus(v)
	case string:
		*s = LotStatus(v)
	default:
		return fmt.Errorf("cannot scan type %T into LotStatus", value)
	}
	return nil
}

// Value implements driver.Valuer interface for LotStatus.
func (s LotStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// IngredientLot is the GORM model for the ingredient_lots table: one received
// batch of an ingredient. RemainingQuantity decreases as production runs
// consume stock; the original Quantity never changes.
type IngredientLot struct {
	ID                int64      `gorm:"primaryKey;column:id" json:"id"`
	LotCode           string     `gorm:"column:lot_code;size:36;not null;uniqueIndex" json:"lotCode"`
	IngredientID      int64      `gorm:"column:ingredient_id;not null;index" json:"ingredientId"`
	Supplier          string     `gorm:"column:supplier;size:100" json:"supplier"`
	Quantity          float64    `gorm:"column:quantity;not null" json:"quantity"`
	RemainingQuantity float64    `gorm:"column:remaining_quantity;not null" json:"remainingQuantity"`
	Status            LotStatus  `gorm:"column:status;type:enum('available','consumed','expired','recalled');default:'available';not null;index" json:"status"`
	ReceivedAt        time.Time  `gorm:"column:received_at;not null" json:"receivedAt"`
	ExpiresAt         *time.Time `gorm:"column:expires_at;index" json:"expiresAt"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (IngredientLot) TableName() string {
	return "ingredient_lots"
}

// LotFilter defines query filters for listing lots.
type LotFilter struct {
	IngredientID int64     // optional
	Status       LotStatus // optional
	Page         int32
	PageSize     int32
}

// LotRepo implements biz.LotRepo. Traceability reads are the recall hot path
// and carry the critical performance tier through their operation names.
type LotRepo struct {
	rdb    *ResilientDB
	cache  CacheClient
	logger *log.Helper
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(data *Data, rdb *ResilientDB, logger log.Logger) *LotRepo {
	return &LotRepo{
		rdb:    rdb,
		cache:  data.GetCache(),
		logger: log.NewHelper(logger),
	}
}

// ReceiveLot inserts a new lot with a generated lot code and full remaining
// quantity.
func (r *LotRepo) ReceiveLot(ctx context.Context, lot *IngredientLot) error {
	lot.LotCode = uuid.NewString()
	lot.RemainingQuantity = lot.Quantity
	lot.Status = LotStatusAvailable
	if lot.ReceivedAt.IsZero() {
		lot.ReceivedAt = time.Now()
	}

	err := r.rdb.Execute(ctx, "lot-receive", func(tx *gorm.DB) error {
		return tx.Create(lot).Error
	})
	if err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.logger.Errorw(
			"msg", "failed to receive lot",
			"ingredient_id", lot.IngredientID,
			"supplier", lot.Supplier,
			"error", dbErr.Error(),
		)
		return dbErr
	}

	r.logger.Infow(
		"msg", "lot received",
		"id", lot.ID,
		"lot_code", lot.LotCode,
		"ingredient_id", lot.IngredientID,
		"quantity", lot.Quantity,
	)
	return nil
}

// GetLot retrieves one lot by ID.
func (r *LotRepo) GetLot(ctx context.Context, id int64) (*IngredientLot, error) {
	var lot IngredientLot
	err := r.rdb.Execute(ctx, "lot-get", func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&lot).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to get lot %d: %v", id, err)
		return nil, err
	}
	return &lot, nil
}

// ListLots retrieves lots with pagination and optional ingredient/status
// filters, soonest expiry first.
func (r *LotRepo) ListLots(ctx context.Context, filter *LotFilter) ([]*IngredientLot, int64, error) {
	if filter == nil {
		filter = &LotFilter{Page: 1, PageSize: 20}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	var (
		lots  []*IngredientLot
		total int64
	)
	err := r.rdb.Execute(ctx, "lot-list", func(tx *gorm.DB) error {
		query := tx.Model(&IngredientLot{})
		if filter.IngredientID > 0 {
			query = query.Where("ingredient_id = ?", filter.IngredientID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		offset := (filter.Page - 1) * filter.PageSize
		return query.Offset(int(offset)).Limit(int(filter.PageSize)).
			Order("expires_at IS NULL, expires_at ASC, received_at ASC").
			Find(&lots).Error
	})
	if err != nil {
		r.logger.Errorf("failed to list lots: %v", err)
		return nil, 0, err
	}
	return lots, total, nil
}

// AdjustLot corrects the remaining quantity of a lot (stocktake shrinkage,
// spillage). Reaching zero marks the lot consumed.
func (r *LotRepo) AdjustLot(ctx context.Context, id int64, remaining float64) error {
	err := r.rdb.Execute(ctx, "lot-adjust", func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"remaining_quantity": remaining,
			"updated_at":         time.Now(),
		}
		if remaining <= 0 {
			updates["remaining_quantity"] = 0.0
			updates["status"] = LotStatusConsumed
		}
		result := tx.Model(&IngredientLot{}).
			Where("id = ? AND status = ?", id, LotStatusAvailable).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorw("msg", "failed to adjust lot", "id", id, "error", err)
		return err
	}

	r.logger.Infow("msg", "lot adjusted", "id", id, "remaining", remaining)
	return nil
}

// MarkLotRecalled flags a lot recalled regardless of its current status.
// Runs on the recall hot path and invalidates the cached trace for the lot.
func (r *LotRepo) MarkLotRecalled(ctx context.Context, id int64) (*IngredientLot, error) {
	var lot IngredientLot
	err := r.rdb.Execute(ctx, "recall-mark-lot", func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&lot).Error; err != nil {
			return err
		}
		lot.Status = LotStatusRecalled
		return tx.Model(&IngredientLot{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     LotStatusRecalled,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorw("msg", "failed to mark lot recalled", "id", id, "error", err)
		return nil, err
	}

	if cerr := r.cache.Delete(ctx, BuildCacheKey(CacheKeyTrace, lot.LotCode)); cerr != nil {
		r.logger.Warnw("msg", "failed to invalidate trace cache", "lot_code", lot.LotCode, "error", cerr)
	}

	r.logger.Warnw("msg", "lot recalled", "id", id, "lot_code", lot.LotCode, "ingredient_id", lot.IngredientID)
	return &lot, nil
}

// RunsByLot returns every production run that consumed the lot, the core
// recall traceability query. Results are cached briefly keyed by lot code;
// usage history is append-only once runs complete.
func (r *LotRepo) RunsByLot(ctx context.Context, lotID int64, lotCode string) ([]*ProductionRun, error) {
	cacheKey := BuildCacheKey(CacheKeyTrace, lotCode)

	var cached []*ProductionRun
	if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
		r.logger.Debugw("msg", "trace cache hit", "lot_code", lotCode)
		return cached, nil
	}

	var runs []*ProductionRun
	err := r.rdb.Execute(ctx, "traceability-runs-by-lot", func(tx *gorm.DB) error {
		return tx.Model(&ProductionRun{}).
			Joins("JOIN run_lot_usages ON run_lot_usages.run_id = production_runs.id").
			Where("run_lot_usages.lot_id = ?", lotID).
			Order("production_runs.scheduled_at ASC").
			Find(&runs).Error
	})
	if err != nil {
		r.logger.Errorf("failed to trace runs for lot %d: %v", lotID, err)
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, runs, TTLTrace); err != nil {
		r.logger.Warnw("msg", "failed to cache trace", "lot_code", lotCode, "error", err)
	}
	return runs, nil
}

// ExpireLots marks available lots expired whose expiry timestamp has passed.
// Returns the number of lots swept. Runs on the hourly expiry cron.
func (r *LotRepo) ExpireLots(ctx context.Context, now time.Time) (int64, error) {
	var swept int64
	err := r.rdb.Execute(ctx, "lot-expiry-sweep", func(tx *gorm.DB) error {
		result := tx.Model(&IngredientLot{}).
			Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", LotStatusAvailable, now).
			Updates(map[string]interface{}{
				"status":     LotStatusExpired,
				"updated_at": now,
			})
		swept = result.RowsAffected
		return result.Error
	})
	if err != nil {
		r.logger.Errorf("lot expiry sweep failed: %v", err)
		return 0, err
	}
	return swept, nil
}

// normalizeLotCode uppercases nothing and trims whitespace; lot codes are
// stored as generated, lookups should not be whitespace sensitive.
func normalizeLotCode(code string) string {
	return strings.TrimSpace(code)
}

// GetLotByCode retrieves one lot by its lot code.
func (r *LotRepo) GetLotByCode(ctx context.Context, code string) (*IngredientLot, error) {
	var lot IngredientLot
	err := r.rdb.Execute(ctx, "lot-get-by-code", func(tx *gorm.DB) error {
		return tx.Where("lot_code = ?", normalizeLotCode(code)).First(&lot).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to get lot by code %q: %v", code, err)
		return nil, err
	}
	return &lot, nil
}
