package service

import (
	"time"

	"Proofline/internal/biz"
	"Proofline/internal/data"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ProductionService exposes the production run lifecycle over HTTP.
type ProductionService struct {
	uc     *biz.ProductionUsecase
	logger *log.Helper
}

// NewProductionService creates a new production service.
func NewProductionService(uc *biz.ProductionUsecase, logger log.Logger) *ProductionService {
	return &ProductionService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the production run endpoints on the API router.
func (s *ProductionService) RegisterRoutes(r *khttp.Router) {
	r.POST("/production-runs", s.ScheduleRun)
	r.GET("/production-runs", s.ListRuns)
	r.GET("/production-runs/{id}", s.GetRun)
	r.POST("/production-runs/{id}/start", s.StartRun)
	r.POST("/production-runs/{id}/complete", s.CompleteRun)
	r.POST("/production-runs/{id}/cancel", s.CancelRun)
	r.GET("/production-runs/{id}/lots", s.LotsByRun)
}

// scheduleRunRequest is the scheduling payload.
type scheduleRunRequest struct {
	RecipeID        int64      `json:"recipeId"`
	PlannedQuantity float64    `json:"plannedQuantity"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	Operator        string     `json:"operator"`
	Notes           string     `json:"notes"`
}

// ScheduleRun handles POST /api/v1/production-runs.
func (s *ProductionService) ScheduleRun(ctx khttp.Context) error {
	var req scheduleRunRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	run := &data.ProductionRun{
		RecipeID:        req.RecipeID,
		PlannedQuantity: req.PlannedQuantity,
		Operator:        req.Operator,
		Notes:           req.Notes,
	}
	if req.ScheduledAt != nil {
		run.ScheduledAt = *req.ScheduledAt
	}

	created, err := s.uc.ScheduleRun(ctx, run)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(201, created)
}

// GetRun handles GET /api/v1/production-runs/{id}.
func (s *ProductionService) GetRun(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	run, err := s.uc.GetRun(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, run)
}

// ListRuns handles GET /api/v1/production-runs.
func (s *ProductionService) ListRuns(ctx khttp.Context) error {
	filter := &data.RunFilter{
		Page:     queryInt32(ctx, "page", 1),
		PageSize: queryInt32(ctx, "pageSize", 20),
		Status:   data.RunStatus(ctx.Query().Get("status")),
	}
	if raw := ctx.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return kratoserrors.BadRequest("VALIDATION", "invalid from timestamp: "+raw)
		}
		filter.From = from
	}
	if raw := ctx.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return kratoserrors.BadRequest("VALIDATION", "invalid to timestamp: "+raw)
		}
		filter.To = to
	}

	runs, total, err := s.uc.ListRuns(ctx, filter)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, &listReply{Items: runs, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// startRunRequest names the operator taking the run.
type startRunRequest struct {
	Operator string `json:"operator"`
}

// StartRun handles POST /api/v1/production-runs/{id}/start. Consumes lot
// stock first-expiring-first-out; a shortfall returns 409 with nothing
// consumed.
func (s *ProductionService) StartRun(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req startRunRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	run, err := s.uc.StartRun(ctx, id, req.Operator)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, run)
}

// completeRunRequest carries the actual output of the run.
type completeRunRequest struct {
	ProducedQuantity float64 `json:"producedQuantity"`
}

// CompleteRun handles POST /api/v1/production-runs/{id}/complete.
func (s *ProductionService) CompleteRun(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req completeRunRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	run, err := s.uc.CompleteRun(ctx, id, req.ProducedQuantity)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, run)
}

// CancelRun handles POST /api/v1/production-runs/{id}/cancel.
func (s *ProductionService) CancelRun(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	run, err := s.uc.CancelRun(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, run)
}

// LotsByRun handles GET /api/v1/production-runs/{id}/lots.
func (s *ProductionService) LotsByRun(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	details, err := s.uc.LotsByRun(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, map[string]interface{}{"items": details, "total": len(details)})
}
