package data

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	pkgerrors "Proofline/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic-locking update finds a
// stale version number.
var ErrVersionConflict = errors.New("version conflict: record was modified concurrently")

// RecipeCategory represents the database ENUM type for recipe category.
type RecipeCategory string

// Recipe category constants.
const (
	RecipeCategoryBread  RecipeCategory = "bread"
	RecipeCategoryPastry RecipeCategory = "pastry"
	RecipeCategoryCake   RecipeCategory = "cake"
	RecipeCategoryCookie RecipeCategory = "cookie"
	RecipeCategoryOther  RecipeCategory = "other"
)

// ValidRecipeCategory reports whether c is one of the known categories.
func ValidRecipeCategory(c RecipeCategory) bool {
	switch c {
	case RecipeCategoryBread, RecipeCategoryPastry, RecipeCategoryCake, RecipeCategoryCookie, RecipeCategoryOther:
		return true
	default:
		return false
	}
}

// Scan implements sql.Scanner interface for RecipeCategory.
func (c *RecipeCategory) Scan(value interface{}) error {
	if value == nil {
		*c = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*c = RecipeCategory(v)
	case string:
		*c = RecipeCategory(v)
	default:
		return fmt.Errorf("cannot scan type %T into RecipeCategory", value)
	}
	return nil
}

// Value implements driver.Valuer interface for RecipeCategory.
func (c RecipeCategory) Value() (driver.Value, error) {
	return string(c), nil
}

// Recipe is the GORM model for the recipes table. YieldQuantity/YieldUnit
// describe the output of one batch; RecipeItem quantities are per batch.
type Recipe struct {
	ID            int64          `gorm:"primaryKey;column:id" json:"id"`
	Name          string         `gorm:"column:name;size:100;not null;uniqueIndex" json:"name"`
	Description   string         `gorm:"column:description;type:text" json:"description"`
	Category      RecipeCategory `gorm:"column:category;type:enum('bread','pastry','cake','cookie','other');default:'other';not null" json:"category"`
	YieldQuantity float64        `gorm:"column:yield_quantity;not null" json:"yieldQuantity"`
	YieldUnit     string         `gorm:"column:yield_unit;size:20;not null" json:"yieldUnit"`
	Active        bool           `gorm:"column:active;default:true;not null" json:"active"`
	Version       int32          `gorm:"column:version;default:1;not null" json:"version"`
	Items         []RecipeItem   `gorm:"foreignKey:RecipeID" json:"items"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (Recipe) TableName() string {
	return "recipes"
}

// RecipeItem is one ingredient line of a recipe, quantity per batch in the
// ingredient's unit.
type RecipeItem struct {
	ID           int64   `gorm:"primaryKey;column:id" json:"id"`
	RecipeID     int64   `gorm:"column:recipe_id;not null;index" json:"recipeId"`
	IngredientID int64   `gorm:"column:ingredient_id;not null;index" json:"ingredientId"`
	Quantity     float64 `gorm:"column:quantity;not null" json:"quantity"`
}

// TableName specifies the table name for GORM.
func (RecipeItem) TableName() string {
	return "recipe_items"
}

// RecipeFilter defines query filters for listing recipes.
type RecipeFilter struct {
	Page       int32
	PageSize   int32
	Category   RecipeCategory // optional
	ActiveOnly bool
}

// RecipeRepo implements biz.RecipeRepo. All queries run through the
// resilient client; reads are cached in Redis.
type RecipeRepo struct {
	rdb    *ResilientDB
	cache  CacheClient
	logger *log.Helper
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(data *Data, rdb *ResilientDB, logger log.Logger) *RecipeRepo {
	return &RecipeRepo{
		rdb:    rdb,
		cache:  data.GetCache(),
		logger: log.NewHelper(logger),
	}
}

// CreateRecipe inserts a recipe together with its items.
func (r *RecipeRepo) CreateRecipe(ctx context.Context, recipe *Recipe) error {
	err := r.rdb.Execute(ctx, "recipe-create", func(tx *gorm.DB) error {
		return tx.Create(recipe).Error
	})
	if err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		switch dbErr.Type {
		case pkgerrors.ErrorTypeDuplicateKey:
			r.logger.Warnw(
				"msg", "duplicate recipe name",
				"name", recipe.Name,
				"error", dbErr.Error(),
			)
		default:
			r.logger.Errorw(
				"msg", "failed to create recipe",
				"name", recipe.Name,
				"error", dbErr.Error(),
			)
		}
		return dbErr
	}

	r.logger.Infow("msg", "recipe created", "id", recipe.ID, "name", recipe.Name, "category", recipe.Category)
	return nil
}

// GetRecipe retrieves a recipe with its items, read through the cache.
// Cache key: "recipe:{id}", TTL 5 minutes.
func (r *RecipeRepo) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	cacheKey := BuildCacheKey(CacheKeyRecipe, fmt.Sprintf("%d", id))

	var cached Recipe
	if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
		r.logger.Debugw("msg", "recipe cache hit", "id", id)
		return &cached, nil
	}

	var recipe Recipe
	err := r.rdb.Execute(ctx, "recipe-get", func(tx *gorm.DB) error {
		return tx.Preload("Items").Where("id = ?", id).First(&recipe).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to get recipe %d: %v", id, err)
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, &recipe, TTLRecipe); err != nil {
		r.logger.Warnw("msg", "failed to cache recipe", "id", id, "error", err)
	}
	return &recipe, nil
}

// ListRecipes retrieves recipes with pagination and filters. Items are not
// preloaded on list queries.
func (r *RecipeRepo) ListRecipes(ctx context.Context, filter *RecipeFilter) ([]*Recipe, int64, error) {
	if filter == nil {
		filter = &RecipeFilter{Page: 1, PageSize: 20}
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
		recipes []*Recipe
		total   int64
	)
	err := r.rdb.Execute(ctx, "recipe-list", func(tx *gorm.DB) error {
		query := tx.Model(&Recipe{})
		if filter.Category != "" {
			query = query.Where("category = ?", filter.Category)
		}
		if filter.ActiveOnly {
			query = query.Where("active = ?", true)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		offset := (filter.Page - 1) * filter.PageSize
		return query.Offset(int(offset)).Limit(int(filter.PageSize)).
			Order("name ASC").
			Find(&recipes).Error
	})
	if err != nil {
		r.logger.Errorf("failed to list recipes: %v", err)
		return nil, 0, err
	}

	r.logger.Debugw("msg", "recipes listed", "count", len(recipes), "total", total, "page", filter.Page)
	return recipes, total, nil
}

// UpdateRecipe saves recipe fields guarded by the optimistic version column
// and replaces the item list when items is non-nil. Returns
// ErrVersionConflict when the stored version moved on.
func (r *RecipeRepo) UpdateRecipe(ctx context.Context, recipe *Recipe, items []RecipeItem) error {
	err := r.rdb.Execute(ctx, "recipe-update", func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&Recipe{}).
				Where("id = ? AND version = ?", recipe.ID, recipe.Version).
				Updates(map[string]interface{}{
					"name":           recipe.Name,
					"description":    recipe.Description,
					"category":       recipe.Category,
					"yield_quantity": recipe.YieldQuantity,
					"yield_unit":     recipe.YieldUnit,
					"active":         recipe.Active,
					"version":        gorm.Expr("version + 1"),
					"updated_at":     time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Either the row is gone or someone bumped the version first.
				var count int64
				if err := tx.Model(&Recipe{}).Where("id = ?", recipe.ID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return gorm.ErrRecordNotFound
				}
				return ErrVersionConflict
			}

			if items != nil {
				if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&RecipeItem{}).Error; err != nil {
					return err
				}
				for i := range items {
					items[i].ID = 0
					items[i].RecipeID = recipe.ID
				}
				if len(items) > 0 {
					if err := tx.Create(&items).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrVersionConflict) || errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		r.logger.Errorf("failed to update recipe %d: %v", recipe.ID, err)
		return pkgerrors.ClassifyDBError(err)
	}

	r.invalidate(ctx, recipe.ID)
	r.logger.Infow("msg", "recipe updated", "id", recipe.ID, "name", recipe.Name)
	return nil
}

// DeleteRecipe deactivates a recipe (soft delete) so existing production
// history keeps its reference.
func (r *RecipeRepo) DeleteRecipe(ctx context.Context, id int64) error {
	err := r.rdb.Execute(ctx, "recipe-delete", func(tx *gorm.DB) error {
		result := tx.Model(&Recipe{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"active":     false,
				"updated_at": time.Now(),
			})
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
			return err
		}
		r.logger.Errorf("failed to delete recipe %d: %v", id, err)
		return err
	}

	r.invalidate(ctx, id)
	r.logger.Infow("msg", "recipe deactivated", "id", id)
	return nil
}

func (r *RecipeRepo) invalidate(ctx context.Context, id int64) {
	cacheKey := BuildCacheKey(CacheKeyRecipe, fmt.Sprintf("%d", id))
	if err := r.cache.Delete(ctx, cacheKey); err != nil {
		r.logger.Warnw("msg", "failed to delete recipe cache", "id", id, "error", err)
	}
}
