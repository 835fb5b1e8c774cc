package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewRecipeService,
	NewIngredientService,
	NewLotService,
	NewProductionService,
	NewReportService,
	NewHealthService,
)
