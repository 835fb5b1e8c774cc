// Package service implements the HTTP transport layer: JSON request
// shaping, usecase invocation and error mapping.
package service

import (
	"strconv"

	"Proofline/internal/biz"
	"Proofline/internal/data"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// RecipeService exposes recipe CRUD over HTTP.
type RecipeService struct {
	uc     *biz.RecipeUsecase
	logger *log.Helper
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(uc *biz.RecipeUsecase, logger log.Logger) *RecipeService {
	return &RecipeService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the recipe endpoints on the API router.
func (s *RecipeService) RegisterRoutes(r *khttp.Router) {
	r.POST("/recipes", s.CreateRecipe)
	r.GET("/recipes", s.ListRecipes)
	r.GET("/recipes/{id}", s.GetRecipe)
	r.PUT("/recipes/{id}", s.UpdateRecipe)
	r.DELETE("/recipes/{id}", s.DeleteRecipe)
}

// recipeItemRequest is one ingredient line in a recipe payload.
type recipeItemRequest struct {
	IngredientID int64   `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

// recipeRequest is the create/update payload.
type recipeRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	YieldQuantity float64             `json:"yieldQuantity"`
	YieldUnit     string              `json:"yieldUnit"`
	Active        *bool               `json:"active"`
	Version       int32               `json:"version"`
	Items         []recipeItemRequest `json:"items"`
}

// listReply is the shared pagination envelope.
type listReply struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int32       `json:"page"`
	PageSize int32       `json:"pageSize"`
}

// pathID extracts the {id} path variable.
func pathID(ctx khttp.Context) (int64, error) {
	raw := ctx.Vars().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, kratoserrors.BadRequest("VALIDATION", "invalid id: "+raw)
	}
	return id, nil
}

func (req *recipeRequest) items() []data.RecipeItem {
	if req.Items == nil {
		return nil
	}
	items := make([]data.RecipeItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = data.RecipeItem{IngredientID: it.IngredientID, Quantity: it.Quantity}
	}
	return items
}

// CreateRecipe handles POST /api/v1/recipes.
func (s *RecipeService) CreateRecipe(ctx khttp.Context) error {
	var req recipeRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	recipe := &data.Recipe{
		Name:          req.Name,
		Description:   req.Description,
		Category:      data.RecipeCategory(req.Category),
		YieldQuantity: req.YieldQuantity,
		YieldUnit:     req.YieldUnit,
		Items:         req.items(),
	}
	created, err := s.uc.CreateRecipe(ctx, recipe)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(201, created)
}

// GetRecipe handles GET /api/v1/recipes/{id}.
func (s *RecipeService) GetRecipe(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	recipe, err := s.uc.GetRecipe(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, recipe)
}

// ListRecipes handles GET /api/v1/recipes.
func (s *RecipeService) ListRecipes(ctx khttp.Context) error {
	filter := &data.RecipeFilter{
		Page:     queryInt32(ctx, "page", 1),
		PageSize: queryInt32(ctx, "pageSize", 20),
		Category: data.RecipeCategory(ctx.Query().Get("category")),
	}
	filter.ActiveOnly = ctx.Query().Get("activeOnly") == "true"

	recipes, total, err := s.uc.ListRecipes(ctx, filter)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, &listReply{Items: recipes, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// UpdateRecipe handles PUT /api/v1/recipes/{id}.
func (s *RecipeService) UpdateRecipe(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req recipeRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	recipe := &data.Recipe{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Category:      data.RecipeCategory(req.Category),
		YieldQuantity: req.YieldQuantity,
		YieldUnit:     req.YieldUnit,
		Version:       req.Version,
	}
	if req.Active != nil {
		recipe.Active = *req.Active
	} else {
		recipe.Active = true
	}

	updated, err := s.uc.UpdateRecipe(ctx, recipe, req.items())
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, updated)
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}.
func (s *RecipeService) DeleteRecipe(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := s.uc.DeleteRecipe(ctx, id); err != nil {
		return apiError(err)
	}
	return ctx.Result(200, map[string]interface{}{"deleted": id})
}

// queryInt32 parses an int32 query parameter with a fallback.
func queryInt32(ctx khttp.Context, key string, def int32) int32 {
	raw := ctx.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	return int32(v)
}
