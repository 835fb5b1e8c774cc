package service

import (
	"Proofline/internal/biz"
	"Proofline/internal/data"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// IngredientService exposes ingredient CRUD over HTTP.
type IngredientService struct {
	uc     *biz.IngredientUsecase
	logger *log.Helper
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(uc *biz.IngredientUsecase, logger log.Logger) *IngredientService {
	return &IngredientService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the ingredient endpoints on the API router.
func (s *IngredientService) RegisterRoutes(r *khttp.Router) {
	r.POST("/ingredients", s.CreateIngredient)
	r.GET("/ingredients", s.ListIngredients)
	r.GET("/ingredients/{id}", s.GetIngredient)
	r.PUT("/ingredients/{id}", s.UpdateIngredient)
}

// ingredientRequest is the create/update payload.
type ingredientRequest struct {
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	AllergenNote string  `json:"allergenNote"`
	ReorderLevel float64 `json:"reorderLevel"`
}

// CreateIngredient handles POST /api/v1/ingredients.
func (s *IngredientService) CreateIngredient(ctx khttp.Context) error {
	var req ingredientRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	created, err := s.uc.CreateIngredient(ctx, &data.Ingredient{
		Name:         req.Name,
		Unit:         req.Unit,
		AllergenNote: req.AllergenNote,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(201, created)
}

// GetIngredient handles GET /api/v1/ingredients/{id}.
func (s *IngredientService) GetIngredient(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	ing, err := s.uc.GetIngredient(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, ing)
}

// ListIngredients handles GET /api/v1/ingredients.
func (s *IngredientService) ListIngredients(ctx khttp.Context) error {
	ings, err := s.uc.ListIngredients(ctx)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, map[string]interface{}{"items": ings, "total": len(ings)})
}

// UpdateIngredient handles PUT /api/v1/ingredients/{id}.
func (s *IngredientService) UpdateIngredient(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req ingredientRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	updated, err := s.uc.UpdateIngredient(ctx, &data.Ingredient{
		ID:           id,
		Name:         req.Name,
		Unit:         req.Unit,
		AllergenNote: req.AllergenNote,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, updated)
}
