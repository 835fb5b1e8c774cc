package biz

import (
	"context"
	"time"

	"Proofline/internal/data"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// In-process recipe cache sizing. This sits in front of the Redis cache and
// absorbs the per-request hot set; Redis absorbs cross-instance reads.
const (
	recipeCacheSize = 256
	recipeCacheTTL  = 2 * time.Minute
)

// RecipeRepo abstracts recipe persistence.
type RecipeRepo interface {
	CreateRecipe(ctx context.Context, recipe *data.Recipe) error
	GetRecipe(ctx context.Context, id int64) (*data.Recipe, error)
	ListRecipes(ctx context.Context, filter *data.RecipeFilter) ([]*data.Recipe, int64, error)
	UpdateRecipe(ctx context.Context, recipe *data.Recipe, items []data.RecipeItem) error
	DeleteRecipe(ctx context.Context, id int64) error
}

// RecipeUsecase implements recipe business logic.
type RecipeUsecase struct {
	repo   RecipeRepo
	hot    *expirable.LRU[int64, *data.Recipe]
	logger *log.Helper
}

// NewRecipeUsecase creates a new recipe usecase.
func NewRecipeUsecase(repo RecipeRepo, logger log.Logger) *RecipeUsecase {
	return &RecipeUsecase{
		repo:   repo,
		hot:    expirable.NewLRU[int64, *data.Recipe](recipeCacheSize, nil, recipeCacheTTL),
		logger: log.NewHelper(logger),
	}
}

// validateRecipe checks the fields shared by create and update.
func validateRecipe(recipe *data.Recipe) error {
	if recipe.Name == "" {
		return errors.BadRequest("VALIDATION", "recipe name is required")
	}
	if !data.ValidRecipeCategory(recipe.Category) {
		return errors.BadRequest("VALIDATION", "unknown recipe category: "+string(recipe.Category))
	}
	if recipe.YieldQuantity <= 0 {
		return errors.BadRequest("VALIDATION", "yield quantity must be positive")
	}
	if recipe.YieldUnit == "" {
		return errors.BadRequest("VALIDATION", "yield unit is required")
	}
	for _, item := range recipe.Items {
		if item.IngredientID <= 0 {
			return errors.BadRequest("VALIDATION", "recipe item needs an ingredient")
		}
		if item.Quantity <= 0 {
			return errors.BadRequest("VALIDATION", "recipe item quantity must be positive")
		}
	}
	return nil
}

// CreateRecipe validates and persists a recipe with its items.
func (uc *RecipeUsecase) CreateRecipe(ctx context.Context, recipe *data.Recipe) (*data.Recipe, error) {
	if recipe.Category == "" {
		recipe.Category = data.RecipeCategoryOther
	}
	recipe.Active = true
	recipe.Version = 1
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}
	if err := uc.repo.CreateRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipe reads one recipe through the in-process cache.
func (uc *RecipeUsecase) GetRecipe(ctx context.Context, id int64) (*data.Recipe, error) {
	if recipe, ok := uc.hot.Get(id); ok {
		return recipe, nil
	}
	recipe, err := uc.repo.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.hot.Add(id, recipe)
	return recipe, nil
}

// ListRecipes returns recipes matching the filter.
func (uc *RecipeUsecase) ListRecipes(ctx context.Context, filter *data.RecipeFilter) ([]*data.Recipe, int64, error) {
	if filter != nil && filter.Category != "" && !data.ValidRecipeCategory(filter.Category) {
		return nil, 0, errors.BadRequest("VALIDATION", "unknown recipe category: "+string(filter.Category))
	}
	return uc.repo.ListRecipes(ctx, filter)
}

// UpdateRecipe validates and saves recipe fields with optimistic locking,
// optionally replacing the item list, then drops stale cache entries.
func (uc *RecipeUsecase) UpdateRecipe(ctx context.Context, recipe *data.Recipe, items []data.RecipeItem) (*data.Recipe, error) {
	if recipe.ID <= 0 {
		return nil, errors.BadRequest("VALIDATION", "recipe id is required")
	}
	check := *recipe
	check.Items = items
	if err := validateRecipe(&check); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateRecipe(ctx, recipe, items); err != nil {
		return nil, err
	}
	uc.hot.Remove(recipe.ID)
	return uc.repo.GetRecipe(ctx, recipe.ID)
}

// DeleteRecipe deactivates a recipe and drops its cache entries.
func (uc *RecipeUsecase) DeleteRecipe(ctx context.Context, id int64) error {
	if err := uc.repo.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	uc.hot.Remove(id)
	return nil
}
