package data

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	pkgerrors "Proofline/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunStatus represents the database ENUM type for production run status.
type RunStatus string

// Production run status constants.
const (
	RunStatusScheduled  RunStatus = "scheduled"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusCancelled  RunStatus = "cancelled"
)

// ValidRunStatus reports whether s is one of the known statuses.
func ValidRunStatus(s RunStatus) bool {
	switch s {
	case RunStatusScheduled, RunStatusInProgress, RunStatusCompleted, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements sql.Scanner interface for RunStatus.
func (s *RunStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = RunStatus(v)
	case string:
		*s = RunStatus(v)
	default:
		return fmt.Errorf("cannot scan type %T into RunStatus", value)
	}
	return nil
}

// Value implements driver.Valuer interface for RunStatus.
func (s RunStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// InsufficientStockError aborts a run start when an ingredient's available
// lots cannot cover the required quantity. The transaction rolls back, so no
// partial consumption survives.
type InsufficientStockError struct {
	IngredientID int64
	Required     float64
	Available    float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for ingredient %d: need %.2f, have %.2f",
		e.IngredientID, e.Required, e.Available)
}

// InvalidRunStateError reports a lifecycle action applied to a run in the
// wrong status, e.g. starting a completed run.
type InvalidRunStateError struct {
	RunID  int64
	Status RunStatus
	Action string
}

func (e *InvalidRunStateError) Error() string {
	return fmt.Sprintf("cannot %s production run %d in status %q", e.Action, e.RunID, e.Status)
}

// ProductionRun is the GORM model for the production_runs table. Planned and
// produced quantities are expressed in the recipe's yield unit.
type ProductionRun struct {
	ID               int64      `gorm:"primaryKey;column:id" json:"id"`
	BatchCode        string     `gorm:"column:batch_code;size:36;not null;uniqueIndex" json:"batchCode"`
	RecipeID         int64      `gorm:"column:recipe_id;not null;index" json:"recipeId"`
	Status           RunStatus  `gorm:"column:status;type:enum('scheduled','in_progress','completed','cancelled');default:'scheduled';not null;index" json:"status"`
	PlannedQuantity  float64    `gorm:"column:planned_quantity;not null" json:"plannedQuantity"`
	ProducedQuantity float64    `gorm:"column:produced_quantity;default:0;not null" json:"producedQuantity"`
	ScheduledAt      time.Time  `gorm:"column:scheduled_at;not null;index" json:"scheduledAt"`
	StartedAt        *time.Time `gorm:"column:started_at" json:"startedAt"`
	CompletedAt      *time.Time `gorm:"column:completed_at" json:"completedAt"`
	Operator         string     `gorm:"column:operator;size:100" json:"operator"`
	Notes            string     `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (ProductionRun) TableName() string {
	return "production_runs"
}

// RunLotUsage is the traceability join: how much of which lot fed which run.
type RunLotUsage struct {
	ID           int64     `gorm:"primaryKey;column:id" json:"id"`
	RunID        int64     `gorm:"column:run_id;not null;index" json:"runId"`
	LotID        int64     `gorm:"column:lot_id;not null;index" json:"lotId"`
	IngredientID int64     `gorm:"column:ingredient_id;not null" json:"ingredientId"`
	QuantityUsed float64   `gorm:"column:quantity_used;not null" json:"quantityUsed"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (RunLotUsage) TableName() string {
	return "run_lot_usages"
}

// LotUsageDetail pairs a usage row with its lot for traceability responses.
type LotUsageDetail struct {
	Usage RunLotUsage   `json:"usage"`
	Lot   IngredientLot `json:"lot"`
}

// RunFilter defines query filters for listing production runs.
type RunFilter struct {
	Status   RunStatus // optional
	From     time.Time // optional, scheduled_at lower bound
	To       time.Time // optional, scheduled_at upper bound
	Page     int32
	PageSize int32
}

// ProductionRepo implements biz.ProductionRepo. Run lifecycle transitions
// that touch stock run inside a single transaction with row locks, so
// concurrent starts never double-spend a lot.
type ProductionRepo struct {
	rdb    *ResilientDB
	logger *log.Helper
}

// NewProductionRepo creates a new production run repository.
func NewProductionRepo(rdb *ResilientDB, logger log.Logger) *ProductionRepo {
	return &ProductionRepo{
		rdb:    rdb,
		logger: log.NewHelper(logger),
	}
}

// ScheduleRun inserts a new run in scheduled status with a generated batch
// code.
func (r *ProductionRepo) ScheduleRun(ctx context.Context, run *ProductionRun) error {
	run.BatchCode = uuid.NewString()
	run.Status = RunStatusScheduled
	if run.ScheduledAt.IsZero() {
		run.ScheduledAt = time.Now()
	}

	err := r.rdb.Execute(ctx, "production-run-schedule", func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.logger.Errorw("msg", "failed to schedule run", "recipe_id", run.RecipeID, "error", dbErr.Error())
		return dbErr
	}

	r.logger.Infow(
		"msg", "production run scheduled",
		"id", run.ID,
		"batch_code", run.BatchCode,
		"recipe_id", run.RecipeID,
		"planned", run.PlannedQuantity,
	)
	return nil
}

// GetRun retrieves one run by ID.
func (r *ProductionRepo) GetRun(ctx context.Context, id int64) (*ProductionRun, error) {
	var run ProductionRun
	err := r.rdb.Execute(ctx, "production-run-get", func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&run).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to get production run %d: %v", id, err)
		return nil, err
	}
	return &run, nil
}

// ListRuns retrieves runs with pagination and optional status/date filters,
// newest schedule first.
func (r *ProductionRepo) ListRuns(ctx context.Context, filter *RunFilter) ([]*ProductionRun, int64, error) {
	if filter == nil {
		filter = &RunFilter{Page: 1, PageSize: 20}
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
		runs  []*ProductionRun
		total int64
	)
	err := r.rdb.Execute(ctx, "production-run-list", func(tx *gorm.DB) error {
		query := tx.Model(&ProductionRun{})
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if !filter.From.IsZero() {
			query = query.Where("scheduled_at >= ?", filter.From)
		}
		if !filter.To.IsZero() {
			query = query.Where("scheduled_at <= ?", filter.To)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		offset := (filter.Page - 1) * filter.PageSize
		return query.Offset(int(offset)).Limit(int(filter.PageSize)).
			Order("scheduled_at DESC").
			Find(&runs).Error
	})
	if err != nil {
		r.logger.Errorf("failed to list production runs: %v", err)
		return nil, 0, err
	}
	return runs, total, nil
}

// StartRun moves a scheduled run to in_progress and consumes ingredient
// stock first-expiring-first-out. The whole consumption happens in one
// transaction: run row locked first, then each ingredient's available lots
// in expiry order. Any shortfall rolls everything back with
// InsufficientStockError.
func (r *ProductionRepo) StartRun(ctx context.Context, id int64, operator string) (*ProductionRun, error) {
	var run ProductionRun
	err := r.rdb.Execute(ctx, "production-run-start", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).First(&run).Error; err != nil {
				return err
			}
			if run.Status != RunStatusScheduled {
				return &InvalidRunStateError{RunID: id, Status: run.Status, Action: "start"}
			}

			var recipe Recipe
			if err := tx.Preload("Items").Where("id = ?", run.RecipeID).First(&recipe).Error; err != nil {
				return err
			}
			if recipe.YieldQuantity <= 0 {
				return fmt.Errorf("recipe %d has non-positive yield quantity", recipe.ID)
			}
			batches := run.PlannedQuantity / recipe.YieldQuantity

			for _, item := range recipe.Items {
				required := item.Quantity * batches
				if err := r.consumeFEFO(tx, &run, item.IngredientID, required); err != nil {
					return err
				}
			}

			now := time.Now()
			run.Status = RunStatusInProgress
			run.StartedAt = &now
			if operator != "" {
				run.Operator = operator
			}
			return tx.Model(&ProductionRun{}).
				Where("id = ?", id).
				Updates(map[string]interface{}{
					"status":     RunStatusInProgress,
					"started_at": now,
					"operator":   run.Operator,
					"updated_at": now,
				}).Error
		})
	})
	if err != nil {
		var stockErr *InsufficientStockError
		var stateErr *InvalidRunStateError
		switch {
		case errors.As(err, &stockErr):
			r.logger.Warnw(
				"msg", "run start aborted: insufficient stock",
				"run_id", id,
				"ingredient_id", stockErr.IngredientID,
				"required", stockErr.Required,
				"available", stockErr.Available,
			)
			return nil, err
		case errors.As(err, &stateErr):
			return nil, err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.ClassifyDBError(err)
		default:
			r.logger.Errorf("failed to start production run %d: %v", id, err)
			return nil, err
		}
	}

	r.logger.Infow("msg", "production run started", "id", id, "batch_code", run.BatchCode, "operator", run.Operator)
	return &run, nil
}

// consumeFEFO deducts required quantity from the ingredient's available lots
// in expiry order, writing one usage row per touched lot. Lots without an
// expiry date are consumed last.
func (r *ProductionRepo) consumeFEFO(tx *gorm.DB, run *ProductionRun, ingredientID int64, required float64) error {
	if required <= 0 {
		return nil
	}

	var lots []IngredientLot
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ingredient_id = ? AND status = ? AND remaining_quantity > 0", ingredientID, LotStatusAvailable).
		Order("expires_at IS NULL, expires_at ASC, received_at ASC").
		Find(&lots).Error; err != nil {
		return err
	}

	var available float64
	for _, lot := range lots {
		available += lot.RemainingQuantity
	}
	if available < required {
		return &InsufficientStockError{IngredientID: ingredientID, Required: required, Available: available}
	}

	remaining := required
	for i := range lots {
		if remaining <= 0 {
			break
		}
		lot := &lots[i]
		take := lot.RemainingQuantity
		if take > remaining {
			take = remaining
		}

		newRemaining := lot.RemainingQuantity - take
		updates := map[string]interface{}{
			"remaining_quantity": newRemaining,
			"updated_at":         time.Now(),
		}
		if newRemaining <= 0 {
			updates["status"] = LotStatusConsumed
		}
		if err := tx.Model(&IngredientLot{}).Where("id = ?", lot.ID).Updates(updates).Error; err != nil {
			return err
		}

		usage := RunLotUsage{
			RunID:        run.ID,
			LotID:        lot.ID,
			IngredientID: ingredientID,
			QuantityUsed: take,
		}
		if err := tx.Create(&usage).Error; err != nil {
			return err
		}
		remaining -= take
	}
	return nil
}

// CompleteRun records the produced quantity and closes an in-progress run.
func (r *ProductionRepo) CompleteRun(ctx context.Context, id int64, produced float64) (*ProductionRun, error) {
	var run ProductionRun
	err := r.rdb.Execute(ctx, "production-run-complete", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).First(&run).Error; err != nil {
				return err
			}
			if run.Status != RunStatusInProgress {
				return &InvalidRunStateError{RunID: id, Status: run.Status, Action: "complete"}
			}

			now := time.Now()
			run.Status = RunStatusCompleted
			run.ProducedQuantity = produced
			run.CompletedAt = &now
			return tx.Model(&ProductionRun{}).
				Where("id = ?", id).
				Updates(map[string]interface{}{
					"status":            RunStatusCompleted,
					"produced_quantity": produced,
					"completed_at":      now,
					"updated_at":        now,
				}).Error
		})
	})
	if err != nil {
		var stateErr *InvalidRunStateError
		if errors.As(err, &stateErr) {
			return nil, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to complete production run %d: %v", id, err)
		return nil, err
	}

	r.logger.Infow("msg", "production run completed", "id", id, "produced", produced)
	return &run, nil
}

// CancelRun cancels a scheduled or in-progress run. Stock consumed at start
// is restored to its lots and the usage rows are removed, since no product
// was made from them.
func (r *ProductionRepo) CancelRun(ctx context.Context, id int64) (*ProductionRun, error) {
	var run ProductionRun
	err := r.rdb.Execute(ctx, "production-run-cancel", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).First(&run).Error; err != nil {
				return err
			}
			if run.Status != RunStatusScheduled && run.Status != RunStatusInProgress {
				return &InvalidRunStateError{RunID: id, Status: run.Status, Action: "cancel"}
			}

			var usages []RunLotUsage
			if err := tx.Where("run_id = ?", id).Find(&usages).Error; err != nil {
				return err
			}
			for _, u := range usages {
				result := tx.Model(&IngredientLot{}).
					Where("id = ?", u.LotID).
					Updates(map[string]interface{}{
						"remaining_quantity": gorm.Expr("remaining_quantity + ?", u.QuantityUsed),
						// Restocking only revives consumed lots; expired or
						// recalled lots stay out of circulation.
						"status":     gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END", LotStatusConsumed, LotStatusAvailable),
						"updated_at": time.Now(),
					})
				if result.Error != nil {
					return result.Error
				}
			}
			if len(usages) > 0 {
				if err := tx.Where("run_id = ?", id).Delete(&RunLotUsage{}).Error; err != nil {
					return err
				}
			}

			now := time.Now()
			run.Status = RunStatusCancelled
			return tx.Model(&ProductionRun{}).
				Where("id = ?", id).
				Updates(map[string]interface{}{
					"status":     RunStatusCancelled,
					"updated_at": now,
				}).Error
		})
	})
	if err != nil {
		var stateErr *InvalidRunStateError
		if errors.As(err, &stateErr) {
			return nil, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to cancel production run %d: %v", id, err)
		return nil, err
	}

	r.logger.Infow("msg", "production run cancelled", "id", id, "batch_code", run.BatchCode)
	return &run, nil
}

// LotsByRun returns the lots a run consumed with per-lot quantities, the
// forward traceability query.
func (r *ProductionRepo) LotsByRun(ctx context.Context, runID int64) ([]*LotUsageDetail, error) {
	var usages []RunLotUsage
	err := r.rdb.Execute(ctx, "traceability-lots-by-run", func(tx *gorm.DB) error {
		return tx.Where("run_id = ?", runID).Order("id ASC").Find(&usages).Error
	})
	if err != nil {
		r.logger.Errorf("failed to trace lots for run %d: %v", runID, err)
		return nil, err
	}
	if len(usages) == 0 {
		return []*LotUsageDetail{}, nil
	}

	lotIDs := make([]int64, 0, len(usages))
	for _, u := range usages {
		lotIDs = append(lotIDs, u.LotID)
	}

	var lots []IngredientLot
	err = r.rdb.Execute(ctx, "traceability-lots-by-run", func(tx *gorm.DB) error {
		return tx.Where("id IN ?", lotIDs).Find(&lots).Error
	})
	if err != nil {
		r.logger.Errorf("failed to load lots for run %d: %v", runID, err)
		return nil, err
	}

	byID := make(map[int64]IngredientLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	details := make([]*LotUsageDetail, 0, len(usages))
	for _, u := range usages {
		details = append(details, &LotUsageDetail{Usage: u, Lot: byID[u.LotID]})
	}
	return details, nil
}
