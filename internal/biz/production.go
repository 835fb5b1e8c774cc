package biz

import (
	"context"

	"Proofline/internal/data"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ProductionRepo abstracts production run persistence and lifecycle
// transitions.
type ProductionRepo interface {
	ScheduleRun(ctx context.Context, run *data.ProductionRun) error
	GetRun(ctx context.Context, id int64) (*data.ProductionRun, error)
	ListRuns(ctx context.Context, filter *data.RunFilter) ([]*data.ProductionRun, int64, error)
	StartRun(ctx context.Context, id int64, operator string) (*data.ProductionRun, error)
	CompleteRun(ctx context.Context, id int64, produced float64) (*data.ProductionRun, error)
	CancelRun(ctx context.Context, id int64) (*data.ProductionRun, error)
	LotsByRun(ctx context.Context, runID int64) ([]*data.LotUsageDetail, error)
}

// ProductionUsecase implements the production run lifecycle: schedule, start
// (with FEFO stock consumption), complete, cancel, and run-side traceability.
type ProductionUsecase struct {
	repo    ProductionRepo
	recipes RecipeRepo
	logger  *log.Helper
}

// NewProductionUsecase creates a new production usecase.
func NewProductionUsecase(repo ProductionRepo, recipes RecipeRepo, logger log.Logger) *ProductionUsecase {
	return &ProductionUsecase{
		repo:    repo,
		recipes: recipes,
		logger:  log.NewHelper(logger),
	}
}

// ScheduleRun validates the plan against the recipe and persists the run.
func (uc *ProductionUsecase) ScheduleRun(ctx context.Context, run *data.ProductionRun) (*data.ProductionRun, error) {
	if run.RecipeID <= 0 {
		return nil, errors.BadRequest("VALIDATION", "recipe id is required")
	}
	if run.PlannedQuantity <= 0 {
		return nil, errors.BadRequest("VALIDATION", "planned quantity must be positive")
	}

	recipe, err := uc.recipes.GetRecipe(ctx, run.RecipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.Active {
		return nil, errors.BadRequest("VALIDATION", "recipe is inactive")
	}

	if err := uc.repo.ScheduleRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun reads one run.
func (uc *ProductionUsecase) GetRun(ctx context.Context, id int64) (*data.ProductionRun, error) {
	return uc.repo.GetRun(ctx, id)
}

// ListRuns returns runs matching the filter.
func (uc *ProductionUsecase) ListRuns(ctx context.Context, filter *data.RunFilter) ([]*data.ProductionRun, int64, error) {
	if filter != nil && filter.Status != "" && !data.ValidRunStatus(filter.Status) {
		return nil, 0, errors.BadRequest("VALIDATION", "unknown run status: "+string(filter.Status))
	}
	return uc.repo.ListRuns(ctx, filter)
}

// StartRun consumes ingredient stock first-expiring-first-out and moves the
// run to in_progress. Insufficient stock aborts with nothing consumed.
func (uc *ProductionUsecase) StartRun(ctx context.Context, id int64, operator string) (*data.ProductionRun, error) {
	return uc.repo.StartRun(ctx, id, operator)
}

// CompleteRun closes an in-progress run with the produced quantity.
func (uc *ProductionUsecase) CompleteRun(ctx context.Context, id int64, produced float64) (*data.ProductionRun, error) {
	if produced < 0 {
		return nil, errors.BadRequest("VALIDATION", "produced quantity cannot be negative")
	}
	return uc.repo.CompleteRun(ctx, id, produced)
}

// CancelRun cancels a scheduled or in-progress run, restoring consumed stock.
func (uc *ProductionUsecase) CancelRun(ctx context.Context, id int64) (*data.ProductionRun, error) {
	return uc.repo.CancelRun(ctx, id)
}

// LotsByRun returns the lots and quantities a run consumed.
func (uc *ProductionUsecase) LotsByRun(ctx context.Context, id int64) ([]*data.LotUsageDetail, error) {
	if _, err := uc.repo.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.LotsByRun(ctx, id)
}
