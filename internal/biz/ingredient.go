package biz

import (
	"context"

	"Proofline/internal/data"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// IngredientRepo abstracts ingredient persistence.
type IngredientRepo interface {
	CreateIngredient(ctx context.Context, ing *data.Ingredient) error
	GetIngredient(ctx context.Context, id int64) (*data.Ingredient, error)
	ListIngredients(ctx context.Context) ([]*data.Ingredient, error)
	UpdateIngredient(ctx context.Context, ing *data.Ingredient) error
	ListBelowReorderLevel(ctx context.Context) ([]*data.IngredientStock, error)
}

// IngredientUsecase implements ingredient business logic and the low-stock
// scan the cron server runs every few minutes.
type IngredientUsecase struct {
	repo   IngredientRepo
	logger *log.Helper
}

// NewIngredientUsecase creates a new ingredient usecase.
func NewIngredientUsecase(repo IngredientRepo, logger log.Logger) *IngredientUsecase {
	return &IngredientUsecase{
		repo:   repo,
		logger: log.NewHelper(logger),
	}
}

func validateIngredient(ing *data.Ingredient) error {
	if ing.Name == "" {
		return errors.BadRequest("VALIDATION", "ingredient name is required")
	}
	if ing.Unit == "" {
		return errors.BadRequest("VALIDATION", "ingredient unit is required")
	}
	if ing.ReorderLevel < 0 {
		return errors.BadRequest("VALIDATION", "reorder level cannot be negative")
	}
	return nil
}

// CreateIngredient validates and persists an ingredient.
func (uc *IngredientUsecase) CreateIngredient(ctx context.Context, ing *data.Ingredient) (*data.Ingredient, error) {
	if err := validateIngredient(ing); err != nil {
		return nil, err
	}
	if err := uc.repo.CreateIngredient(ctx, ing); err != nil {
		return nil, err
	}
	return ing, nil
}

// GetIngredient reads one ingredient.
func (uc *IngredientUsecase) GetIngredient(ctx context.Context, id int64) (*data.Ingredient, error) {
	return uc.repo.GetIngredient(ctx, id)
}

// ListIngredients returns the full catalog.
func (uc *IngredientUsecase) ListIngredients(ctx context.Context) ([]*data.Ingredient, error) {
	return uc.repo.ListIngredients(ctx)
}

// UpdateIngredient validates and saves ingredient fields.
func (uc *IngredientUsecase) UpdateIngredient(ctx context.Context, ing *data.Ingredient) (*data.Ingredient, error) {
	if ing.ID <= 0 {
		return nil, errors.BadRequest("VALIDATION", "ingredient id is required")
	}
	if err := validateIngredient(ing); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateIngredient(ctx, ing); err != nil {
		return nil, err
	}
	return uc.repo.GetIngredient(ctx, ing.ID)
}

// ScanLowStock logs every ingredient whose available stock sits under its
// reorder level and returns the findings. Invoked by the cron server.
func (uc *IngredientUsecase) ScanLowStock(ctx context.Context) ([]*data.IngredientStock, error) {
	low, err := uc.repo.ListBelowReorderLevel(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range low {
		uc.logger.Warnw(
			"msg", "ingredient below reorder level",
			"ingredient_id", s.Ingredient.ID,
			"name", s.Ingredient.Name,
			"remaining", s.Remaining,
			"reorder_level", s.Ingredient.ReorderLevel,
			"unit", s.Ingredient.Unit,
		)
	}
	return low, nil
}
