package data

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// ProductionSummaryRow aggregates run counts and quantities per recipe over
// a date range.
type ProductionSummaryRow struct {
	RecipeID      int64   `json:"recipeId"`
	RecipeName    string  `json:"recipeName"`
	RunCount      int64   `json:"runCount"`
	CompletedRuns int64   `json:"completedRuns"`
	CancelledRuns int64   `json:"cancelledRuns"`
	TotalPlanned  float64 `json:"totalPlanned"`
	TotalProduced float64 `json:"totalProduced"`
}

// IngredientUsageRow aggregates consumed quantities per ingredient over a
// date range.
type IngredientUsageRow struct {
	IngredientID   int64   `json:"ingredientId"`
	IngredientName string  `json:"ingredientName"`
	Unit           string  `json:"unit"`
	TotalUsed      float64 `json:"totalUsed"`
	LotCount       int64   `json:"lotCount"`
}

// RunExportRow is one line of the production run CSV export, runs joined
// with their recipe names.
type RunExportRow struct {
	BatchCode        string     `json:"batchCode"`
	RecipeName       string     `json:"recipeName"`
	Status           string     `json:"status"`
	PlannedQuantity  float64    `json:"plannedQuantity"`
	ProducedQuantity float64    `json:"producedQuantity"`
	ScheduledAt      time.Time  `json:"scheduledAt"`
	StartedAt        *time.Time `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt"`
	Operator         string     `json:"operator"`
}

// LotInventoryRow is one line of the lot inventory export.
type LotInventoryRow struct {
	LotCode           string     `json:"lotCode"`
	IngredientName    string     `json:"ingredientName"`
	Unit              string     `json:"unit"`
	Supplier          string     `json:"supplier"`
	Status            string     `json:"status"`
	Quantity          float64    `json:"quantity"`
	RemainingQuantity float64    `json:"remainingQuantity"`
	ReceivedAt        time.Time  `json:"receivedAt"`
	ExpiresAt         *time.Time `json:"expiresAt"`
}

// ReportRepo implements biz.ReportRepo. Aggregations carry analytical
// operation names and exports carry reporting names, so both get the slower
// timeout tiers they need.
type ReportRepo struct {
	rdb    *ResilientDB
	logger *log.Helper
}

// NewReportRepo creates a new report repository.
func NewReportRepo(rdb *ResilientDB, logger log.Logger) *ReportRepo {
	return &ReportRepo{
		rdb:    rdb,
		logger: log.NewHelper(logger),
	}
}

// ProductionSummary aggregates runs per recipe scheduled inside [from, to].
func (r *ReportRepo) ProductionSummary(ctx context.Context, from, to time.Time) ([]*ProductionSummaryRow, error) {
	var rows []*ProductionSummaryRow
	err := r.rdb.Execute(ctx, "stats-production-summary", func(tx *gorm.DB) error {
		query := tx.Model(&ProductionRun{}).
			Select(`production_runs.recipe_id AS recipe_id,
				recipes.name AS recipe_name,
				COUNT(*) AS run_count,
				SUM(CASE WHEN production_runs.status = 'completed' THEN 1 ELSE 0 END) AS completed_runs,
				SUM(CASE WHEN production_runs.status = 'cancelled' THEN 1 ELSE 0 END) AS cancelled_runs,
				SUM(production_runs.planned_quantity) AS total_planned,
				SUM(production_runs.produced_quantity) AS total_produced`).
			Joins("JOIN recipes ON recipes.id = production_runs.recipe_id").
			Group("production_runs.recipe_id, recipes.name").
			Order("recipes.name ASC")
		if !from.IsZero() {
			query = query.Where("production_runs.scheduled_at >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("production_runs.scheduled_at <= ?", to)
		}
		return query.Find(&rows).Error
	})
	if err != nil {
		r.logger.Errorf("failed to build production summary: %v", err)
		return nil, err
	}
	return rows, nil
}

// IngredientUsage aggregates lot consumption per ingredient over usage rows
// created inside [from, to].
func (r *ReportRepo) IngredientUsage(ctx context.Context, from, to time.Time) ([]*IngredientUsageRow, error) {
	var rows []*IngredientUsageRow
	err := r.rdb.Execute(ctx, "analytics-ingredient-usage", func(tx *gorm.DB) error {
		query := tx.Model(&RunLotUsage{}).
			Select(`run_lot_usages.ingredient_id AS ingredient_id,
				ingredients.name AS ingredient_name,
				ingredients.unit AS unit,
				SUM(run_lot_usages.quantity_used) AS total_used,
				COUNT(DISTINCT run_lot_usages.lot_id) AS lot_count`).
			Joins("JOIN ingredients ON ingredients.id = run_lot_usages.ingredient_id").
			Group("run_lot_usages.ingredient_id, ingredients.name, ingredients.unit").
			Order("total_used DESC")
		if !from.IsZero() {
			query = query.Where("run_lot_usages.created_at >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("run_lot_usages.created_at <= ?", to)
		}
		return query.Find(&rows).Error
	})
	if err != nil {
		r.logger.Errorf("failed to aggregate ingredient usage: %v", err)
		return nil, err
	}
	return rows, nil
}

// ExportProductionRuns loads every run with its recipe name for the CSV
// export, oldest first so the file reads chronologically.
func (r *ReportRepo) ExportProductionRuns(ctx context.Context, from, to time.Time) ([]*RunExportRow, error) {
	var rows []*RunExportRow
	err := r.rdb.Execute(ctx, "csv-export-production-runs", func(tx *gorm.DB) error {
		query := tx.Model(&ProductionRun{}).
			Select(`production_runs.batch_code,
				recipes.name AS recipe_name,
				production_runs.status,
				production_runs.planned_quantity,
				production_runs.produced_quantity,
				production_runs.scheduled_at,
				production_runs.started_at,
				production_runs.completed_at,
				production_runs.operator`).
			Joins("JOIN recipes ON recipes.id = production_runs.recipe_id").
			Order("production_runs.scheduled_at ASC")
		if !from.IsZero() {
			query = query.Where("production_runs.scheduled_at >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("production_runs.scheduled_at <= ?", to)
		}
		return query.Find(&rows).Error
	})
	if err != nil {
		r.logger.Errorf("failed to export production runs: %v", err)
		return nil, err
	}
	return rows, nil
}

// LotInventory loads every lot with its ingredient for the inventory export.
func (r *ReportRepo) LotInventory(ctx context.Context) ([]*LotInventoryRow, error) {
	var rows []*LotInventoryRow
	err := r.rdb.Execute(ctx, "report-lot-inventory", func(tx *gorm.DB) error {
		return tx.Model(&IngredientLot{}).
			Select(`ingredient_lots.lot_code,
				ingredients.name AS ingredient_name,
				ingredients.unit AS unit,
				ingredient_lots.supplier,
				ingredient_lots.status,
				ingredient_lots.quantity,
				ingredient_lots.remaining_quantity,
				ingredient_lots.received_at,
				ingredient_lots.expires_at`).
			Joins("JOIN ingredients ON ingredients.id = ingredient_lots.ingredient_id").
			Order("ingredients.name ASC, ingredient_lots.received_at ASC").
			Find(&rows).Error
	})
	if err != nil {
		r.logger.Errorf("failed to load lot inventory: %v", err)
		return nil, err
	}
	return rows, nil
}
