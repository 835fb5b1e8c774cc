package biz

import (
	"context"
	"time"

	"Proofline/internal/data"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// LotRepo abstracts ingredient lot persistence and traceability reads.
type LotRepo interface {
	ReceiveLot(ctx context.Context, lot *data.IngredientLot) error
	GetLot(ctx context.Context, id int64) (*data.IngredientLot, error)
	GetLotByCode(ctx context.Context, code string) (*data.IngredientLot, error)
	ListLots(ctx context.Context, filter *data.LotFilter) ([]*data.IngredientLot, int64, error)
	AdjustLot(ctx context.Context, id int64, remaining float64) error
	MarkLotRecalled(ctx context.Context, id int64) (*data.IngredientLot, error)
	RunsByLot(ctx context.Context, lotID int64, lotCode string) ([]*data.ProductionRun, error)
	ExpireLots(ctx context.Context, now time.Time) (int64, error)
}

// RecallResult carries the recalled lot together with every production run
// that consumed it.
type RecallResult struct {
	Lot          *data.IngredientLot  `json:"lot"`
	AffectedRuns []*data.ProductionRun `json:"affectedRuns"`
}

// LotUsecase implements lot intake, adjustment, recall traceability and the
// hourly expiry sweep.
type LotUsecase struct {
	repo        LotRepo
	ingredients IngredientRepo
	logger      *log.Helper
}

// NewLotUsecase creates a new lot usecase.
func NewLotUsecase(repo LotRepo, ingredients IngredientRepo, logger log.Logger) *LotUsecase {
	return &LotUsecase{
		repo:        repo,
		ingredients: ingredients,
		logger:      log.NewHelper(logger),
	}
}

// ReceiveLot validates the intake and persists the lot. The referenced
// ingredient must exist.
func (uc *LotUsecase) ReceiveLot(ctx context.Context, lot *data.IngredientLot) (*data.IngredientLot, error) {
	if lot.IngredientID <= 0 {
		return nil, errors.BadRequest("VALIDATION", "ingredient id is required")
	}
	if lot.Quantity <= 0 {
		return nil, errors.BadRequest("VALIDATION", "lot quantity must be positive")
	}
	if lot.ExpiresAt != nil && !lot.ExpiresAt.After(time.Now()) {
		return nil, errors.BadRequest("VALIDATION", "expiry must be in the future")
	}
	if _, err := uc.ingredients.GetIngredient(ctx, lot.IngredientID); err != nil {
		return nil, err
	}
	if err := uc.repo.ReceiveLot(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// GetLot reads one lot.
func (uc *LotUsecase) GetLot(ctx context.Context, id int64) (*data.IngredientLot, error) {
	return uc.repo.GetLot(ctx, id)
}

// ListLots returns lots matching the filter.
func (uc *LotUsecase) ListLots(ctx context.Context, filter *data.LotFilter) ([]*data.IngredientLot, int64, error) {
	if filter != nil && filter.Status != "" && !data.ValidLotStatus(filter.Status) {
		return nil, 0, errors.BadRequest("VALIDATION", "unknown lot status: "+string(filter.Status))
	}
	return uc.repo.ListLots(ctx, filter)
}

// AdjustLot corrects a lot's remaining quantity after a stocktake.
func (uc *LotUsecase) AdjustLot(ctx context.Context, id int64, remaining float64) (*data.IngredientLot, error) {
	if remaining < 0 {
		return nil, errors.BadRequest("VALIDATION", "remaining quantity cannot be negative")
	}
	if err := uc.repo.AdjustLot(ctx, id, remaining); err != nil {
		return nil, err
	}
	return uc.repo.GetLot(ctx, id)
}

// RecallLot marks the lot recalled and reports every run that consumed it.
// The trace is what an operator sends to the floor to pull affected product.
func (uc *LotUsecase) RecallLot(ctx context.Context, id int64) (*RecallResult, error) {
	lot, err := uc.repo.MarkLotRecalled(ctx, id)
	if err != nil {
		return nil, err
	}
	runs, err := uc.repo.RunsByLot(ctx, lot.ID, lot.LotCode)
	if err != nil {
		return nil, err
	}

	uc.logger.Warnw(
		"msg", "lot recall traced",
		"lot_id", lot.ID,
		"lot_code", lot.LotCode,
		"affected_runs", len(runs),
	)
	return &RecallResult{Lot: lot, AffectedRuns: runs}, nil
}

// RunsByLot returns the runs that consumed a lot without changing its status.
func (uc *LotUsecase) RunsByLot(ctx context.Context, id int64) ([]*data.ProductionRun, error) {
	lot, err := uc.repo.GetLot(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.repo.RunsByLot(ctx, lot.ID, lot.LotCode)
}

// SweepExpiredLots marks overdue lots expired. Invoked by the cron server.
func (uc *LotUsecase) SweepExpiredLots(ctx context.Context) (int64, error) {
	swept, err := uc.repo.ExpireLots(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		uc.logger.Infow("msg", "expired lots swept", "count", swept)
	}
	return swept, nil
}
