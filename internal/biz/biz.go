// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"Proofline/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewRecipeUsecase,
	NewIngredientUsecase,
	NewLotUsecase,
	NewProductionUsecase,
	NewReportUsecase,
	NewHealthUsecase,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(RecipeRepo), new(*data.RecipeRepo)),
	wire.Bind(new(IngredientRepo), new(*data.IngredientRepo)),
	wire.Bind(new(LotRepo), new(*data.LotRepo)),
	wire.Bind(new(ProductionRepo), new(*data.ProductionRepo)),
	wire.Bind(new(ReportRepo), new(*data.ReportRepo)),
	wire.Bind(new(HealthSource), new(*data.ResilientDB)),
)
