package service

import (
	"bytes"
	"time"

	"Proofline/internal/biz"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ReportService exposes statistics and file exports over HTTP.
type ReportService struct {
	uc     *biz.ReportUsecase
	logger *log.Helper
}

// NewReportService creates a new report service.
func NewReportService(uc *biz.ReportUsecase, logger log.Logger) *ReportService {
	return &ReportService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the stats and export endpoints on the API router.
func (s *ReportService) RegisterRoutes(r *khttp.Router) {
	r.GET("/stats/production", s.ProductionSummary)
	r.GET("/stats/ingredient-usage", s.IngredientUsage)
	r.GET("/exports/production-runs.csv", s.ExportProductionRunsCSV)
	r.GET("/exports/lot-inventory.xlsx", s.ExportLotInventoryXLSX)
}

// dateRange parses the optional from/to RFC3339 query parameters.
func dateRange(ctx khttp.Context) (from, to time.Time, err error) {
	if raw := ctx.Query().Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, kratoserrors.BadRequest("VALIDATION", "invalid from timestamp: "+raw)
		}
	}
	if raw := ctx.Query().Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, kratoserrors.BadRequest("VALIDATION", "invalid to timestamp: "+raw)
		}
	}
	return from, to, nil
}

// ProductionSummary handles GET /api/v1/stats/production.
func (s *ReportService) ProductionSummary(ctx khttp.Context) error {
	from, to, err := dateRange(ctx)
	if err != nil {
		return err
	}
	rows, err := s.uc.ProductionSummary(ctx, from, to)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, map[string]interface{}{"items": rows, "total": len(rows)})
}

// IngredientUsage handles GET /api/v1/stats/ingredient-usage.
func (s *ReportService) IngredientUsage(ctx khttp.Context) error {
	from, to, err := dateRange(ctx)
	if err != nil {
		return err
	}
	rows, err := s.uc.IngredientUsage(ctx, from, to)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, map[string]interface{}{"items": rows, "total": len(rows)})
}

// ExportProductionRunsCSV handles GET /api/v1/exports/production-runs.csv.
func (s *ReportService) ExportProductionRunsCSV(ctx khttp.Context) error {
	from, to, err := dateRange(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.uc.WriteProductionRunsCSV(ctx, &buf, from, to); err != nil {
		return apiError(err)
	}

	ctx.Response().Header().Set("Content-Disposition", `attachment; filename="production-runs.csv"`)
	return ctx.Blob(200, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportLotInventoryXLSX handles GET /api/v1/exports/lot-inventory.xlsx.
func (s *ReportService) ExportLotInventoryXLSX(ctx khttp.Context) error {
	f, err := s.uc.BuildLotInventoryXLSX(ctx)
	if err != nil {
		return apiError(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warnw("msg", "failed to close xlsx builder", "error", cerr)
		}
	}()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return apiError(err)
	}

	ctx.Response().Header().Set("Content-Disposition", `attachment; filename="lot-inventory.xlsx"`)
	return ctx.Blob(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
