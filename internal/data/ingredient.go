package data

import (
	"context"
	"errors"
	"time"

	pkgerrors "Proofline/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// Ingredient is the GORM model for the ingredients table. ReorderLevel is
// the remaining-stock floor below which the low-stock scan raises a flag.
type Ingredient struct {
	ID           int64     `gorm:"primaryKey;column:id" json:"id"`
	Name         string    `gorm:"column:name;size:100;not null;uniqueIndex" json:"name"`
	Unit         string    `gorm:"column:unit;size:20;not null" json:"unit"`
	AllergenNote string    `gorm:"column:allergen_note;size:255" json:"allergenNote"`
	ReorderLevel float64   `gorm:"column:reorder_level;default:0;not null" json:"reorderLevel"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (Ingredient) TableName() string {
	return "ingredients"
}

// IngredientStock pairs an ingredient with the summed remaining quantity of
// its available lots. Used by the low-stock scan.
type IngredientStock struct {
	Ingredient Ingredient
	Remaining  float64
}

// IngredientRepo implements biz.IngredientRepo.
type IngredientRepo struct {
	rdb    *ResilientDB
	logger *log.Helper
}

// NewIngredientRepo creates a new ingredient repository.
func NewIngredientRepo(rdb *ResilientDB, logger log.Logger) *IngredientRepo {
	return &IngredientRepo{
		rdb:    rdb,
		logger: log.NewHelper(logger),
	}
}

// CreateIngredient inserts an ingredient.
func (r *IngredientRepo) CreateIngredient(ctx context.Context, ing *Ingredient) error {
	err := r.rdb.Execute(ctx, "ingredient-create", func(tx *gorm.DB) error {
		return tx.Create(ing).Error
	})
	if err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		if dbErr.Type == pkgerrors.ErrorTypeDuplicateKey {
			r.logger.Warnw("msg", "duplicate ingredient name", "name", ing.Name)
		} else {
			r.logger.Errorw("msg", "failed to create ingredient", "name", ing.Name, "error", dbErr.Error())
		}
		return dbErr
	}

	r.logger.Infow("msg", "ingredient created", "id", ing.ID, "name", ing.Name)
	return nil
}

// GetIngredient retrieves one ingredient by ID.
func (r *IngredientRepo) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := r.rdb.Execute(ctx, "ingredient-get", func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&ing).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ClassifyDBError(err)
		}
		r.logger.Errorf("failed to get ingredient %d: %v", id, err)
		return nil, err
	}
	return &ing, nil
}

// ListIngredients returns all ingredients ordered by name. The catalog is
// small enough that pagination is not worth the churn.
func (r *IngredientRepo) ListIngredients(ctx context.Context) ([]*Ingredient, error) {
	var ings []*Ingredient
	err := r.rdb.Execute(ctx, "ingredient-list", func(tx *gorm.DB) error {
		return tx.Order("name ASC").Find(&ings).Error
	})
	if err != nil {
		r.logger.Errorf("failed to list ingredients: %v", err)
		return nil, err
	}
	return ings, nil
}

// UpdateIngredient saves mutable ingredient fields.
func (r *IngredientRepo) UpdateIngredient(ctx context.Context, ing *Ingredient) error {
	err := r.rdb.Execute(ctx, "ingredient-update", func(tx *gorm.DB) error {
		result := tx.Model(&Ingredient{}).
			Where("id = ?", ing.ID).
			Updates(map[string]interface{}{
				"name":          ing.Name,
				"unit":          ing.Unit,
				"allergen_note": ing.AllergenNote,
				"reorder_level": ing.ReorderLevel,
				"updated_at":    time.Now(),
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
			return pkgerrors.ClassifyDBError(err)
		}
		dbErr := pkgerrors.ClassifyDBError(err)
		r.logger.Errorw("msg", "failed to update ingredient", "id", ing.ID, "error", dbErr.Error())
		return dbErr
	}

	r.logger.Infow("msg", "ingredient updated", "id", ing.ID, "name", ing.Name)
	return nil
}

// ListBelowReorderLevel returns ingredients whose summed available stock sits
// under their reorder level. Runs on the low-stock cron scan.
func (r *IngredientRepo) ListBelowReorderLevel(ctx context.Context) ([]*IngredientStock, error) {
	type row struct {
		Ingredient
		Remaining float64
	}

	var rows []row
	err := r.rdb.Execute(ctx, "ingredient-list-low-stock", func(tx *gorm.DB) error {
		return tx.Model(&Ingredient{}).
			Select("ingredients.*, COALESCE(SUM(ingredient_lots.remaining_quantity), 0) AS remaining").
			Joins("LEFT JOIN ingredient_lots ON ingredient_lots.ingredient_id = ingredients.id AND ingredient_lots.status = ?", LotStatusAvailable).
			Group("ingredients.id").
			Having("remaining < ingredients.reorder_level").
			Find(&rows).Error
	})
	if err != nil {
		r.logger.Errorf("failed to scan low stock: %v", err)
		return nil, err
	}

	out := make([]*IngredientStock, len(rows))
	for i, rw := range rows {
		out[i] = &IngredientStock{Ingredient: rw.Ingredient, Remaining: rw.Remaining}
	}
	return out, nil
}
