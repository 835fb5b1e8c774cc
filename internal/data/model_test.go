package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeCategory_ScanValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  RecipeCategory
	}{
		{"from string", "bread", RecipeCategoryBread},
		{"from bytes", []byte("pastry"), RecipeCategoryPastry},
		{"nil clears", nil, RecipeCategory("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c RecipeCategory
			err := c.Scan(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestRecipeCategory_ScanInvalidType(t *testing.T) {
	var c RecipeCategory
	err := c.Scan(42)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot scan")
}

func TestRecipeCategory_Value(t *testing.T) {
	v, err := RecipeCategoryCake.Value()
	require.NoError(t, err)
	assert.Equal(t, "cake", v)
}

func TestValidRecipeCategory(t *testing.T) {
	assert.True(t, ValidRecipeCategory(RecipeCategoryBread))
	assert.True(t, ValidRecipeCategory(RecipeCategoryOther))
	assert.False(t, ValidRecipeCategory(RecipeCategory("croissant")))
	assert.False(t, ValidRecipeCategory(RecipeCategory("")))
}

func TestLotStatus_ScanValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  LotStatus
	}{
		{"from string", "available", LotStatusAvailable},
		{"from bytes", []byte("recalled"), LotStatusRecalled},
		{"nil clears", nil, LotStatus("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s LotStatus
			err := s.Scan(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestLotStatus_ScanInvalidType(t *testing.T) {
	var s LotStatus
	err := s.Scan(3.14)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot scan")
}

func TestLotStatus_Value(t *testing.T) {
	v, err := LotStatusExpired.Value()
	require.NoError(t, err)
	assert.Equal(t, "expired", v)
}

func TestValidLotStatus(t *testing.T) {
	assert.True(t, ValidLotStatus(LotStatusAvailable))
	assert.True(t, ValidLotStatus(LotStatusConsumed))
	assert.False(t, ValidLotStatus(LotStatus("fresh")))
	assert.False(t, ValidLotStatus(LotStatus("")))
}

func TestRunStatus_ScanValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  RunStatus
	}{
		{"from string", "scheduled", RunStatusScheduled},
		{"from bytes", []byte("in_progress"), RunStatusInProgress},
		{"nil clears", nil, RunStatus("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s RunStatus
			err := s.Scan(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestRunStatus_Value(t *testing.T) {
	v, err := RunStatusCancelled.Value()
	require.NoError(t, err)
	assert.Equal(t, "cancelled", v)
}

func TestValidRunStatus(t *testing.T) {
	assert.True(t, ValidRunStatus(RunStatusScheduled))
	assert.True(t, ValidRunStatus(RunStatusCompleted))
	assert.False(t, ValidRunStatus(RunStatus("paused")))
	assert.False(t, ValidRunStatus(RunStatus("")))
}

func TestNormalizeLotCode(t *testing.T) {
	assert.Equal(t, "LOT-7F3A", normalizeLotCode("  LOT-7F3A "))
	assert.Equal(t, "LOT-7F3A", normalizeLotCode("LOT-7F3A"))
	assert.Equal(t, "", normalizeLotCode("   "))
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &InsufficientStockError{IngredientID: 7, Required: 12.5, Available: 4.25}
	assert.Equal(t, "insufficient stock for ingredient 7: need 12.50, have 4.25", err.Error())
}

func TestInvalidRunStateError_Message(t *testing.T) {
	err := &InvalidRunStateError{RunID: 42, Status: RunStatusCompleted, Action: "start"}
	assert.Equal(t, `cannot start production run 42 in status "completed"`, err.Error())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "recipes", Recipe{}.TableName())
	assert.Equal(t, "recipe_items", RecipeItem{}.TableName())
	assert.Equal(t, "ingredients", Ingredient{}.TableName())
	assert.Equal(t, "ingredient_lots", IngredientLot{}.TableName())
	assert.Equal(t, "production_runs", ProductionRun{}.TableName())
	assert.Equal(t, "run_lot_usages", RunLotUsage{}.TableName())
}
