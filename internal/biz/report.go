package biz

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"Proofline/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/xuri/excelize/v2"
)

// ReportRepo abstracts the aggregation and export queries.
type ReportRepo interface {
	ProductionSummary(ctx context.Context, from, to time.Time) ([]*data.ProductionSummaryRow, error)
	IngredientUsage(ctx context.Context, from, to time.Time) ([]*data.IngredientUsageRow, error)
	ExportProductionRuns(ctx context.Context, from, to time.Time) ([]*data.RunExportRow, error)
	LotInventory(ctx context.Context) ([]*data.LotInventoryRow, error)
}

// ReportUsecase implements statistics and file exports.
type ReportUsecase struct {
	repo   ReportRepo
	logger *log.Helper
}

// NewReportUsecase creates a new report usecase.
func NewReportUsecase(repo ReportRepo, logger log.Logger) *ReportUsecase {
	return &ReportUsecase{
		repo:   repo,
		logger: log.NewHelper(logger),
	}
}

// ProductionSummary aggregates run statistics per recipe for the range.
func (uc *ReportUsecase) ProductionSummary(ctx context.Context, from, to time.Time) ([]*data.ProductionSummaryRow, error) {
	return uc.repo.ProductionSummary(ctx, from, to)
}

// IngredientUsage aggregates consumed quantities per ingredient for the
// range.
func (uc *ReportUsecase) IngredientUsage(ctx context.Context, from, to time.Time) ([]*data.IngredientUsageRow, error) {
	return uc.repo.IngredientUsage(ctx, from, to)
}

var runExportHeader = []string{
	"batch_code", "recipe", "status", "planned_quantity", "produced_quantity",
	"scheduled_at", "started_at", "completed_at", "operator",
}

// WriteProductionRunsCSV streams the run export as CSV into w.
func (uc *ReportUsecase) WriteProductionRunsCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	rows, err := uc.repo.ExportProductionRuns(ctx, from, to)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(runExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.BatchCode,
			row.RecipeName,
			row.Status,
			strconv.FormatFloat(row.PlannedQuantity, 'f', -1, 64),
			strconv.FormatFloat(row.ProducedQuantity, 'f', -1, 64),
			row.ScheduledAt.Format(time.RFC3339),
			formatOptionalTime(row.StartedAt),
			formatOptionalTime(row.CompletedAt),
			row.Operator,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	uc.logger.Infow("msg", "production run csv exported", "rows", len(rows))
	return nil
}

// BuildLotInventoryXLSX renders the lot inventory as a spreadsheet. The
// caller owns the returned file and should Close it after writing.
func (uc *ReportUsecase) BuildLotInventoryXLSX(ctx context.Context) (*excelize.File, error) {
	rows, err := uc.repo.LotInventory(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Lot Inventory"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []interface{}{
		"Lot Code", "Ingredient", "Unit", "Supplier", "Status",
		"Quantity", "Remaining", "Received", "Expires",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.LotCode,
			row.IngredientName,
			row.Unit,
			row.Supplier,
			row.Status,
			row.Quantity,
			row.RemainingQuantity,
			row.ReceivedAt.Format(time.RFC3339),
			formatOptionalTime(row.ExpiresAt),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}

	uc.logger.Infow("msg", "lot inventory xlsx built", "rows", len(rows))
	return f, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
