package service

import (
	"time"

	"Proofline/internal/biz"
	"Proofline/internal/data"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// LotService exposes lot intake, adjustment and recall traceability over
// HTTP.
type LotService struct {
	uc     *biz.LotUsecase
	logger *log.Helper
}

// NewLotService creates a new lot service.
func NewLotService(uc *biz.LotUsecase, logger log.Logger) *LotService {
	return &LotService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the lot endpoints on the API router.
func (s *LotService) RegisterRoutes(r *khttp.Router) {
	r.POST("/lots", s.ReceiveLot)
	r.GET("/lots", s.ListLots)
	r.GET("/lots/{id}", s.GetLot)
	r.POST("/lots/{id}/adjust", s.AdjustLot)
	r.POST("/lots/{id}/recall", s.RecallLot)
	r.GET("/lots/{id}/runs", s.RunsByLot)
}

// receiveLotRequest is the intake payload.
type receiveLotRequest struct {
	IngredientID int64      `json:"ingredientId"`
	Supplier     string     `json:"supplier"`
	Quantity     float64    `json:"quantity"`
	ReceivedAt   *time.Time `json:"receivedAt"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

// ReceiveLot handles POST /api/v1/lots.
func (s *LotService) ReceiveLot(ctx khttp.Context) error {
	var req receiveLotRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	lot := &data.IngredientLot{
		IngredientID: req.IngredientID,
		Supplier:     req.Supplier,
		Quantity:     req.Quantity,
		ExpiresAt:    req.ExpiresAt,
	}
	if req.ReceivedAt != nil {
		lot.ReceivedAt = *req.ReceivedAt
	}

	created, err := s.uc.ReceiveLot(ctx, lot)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(201, created)
}

// GetLot handles GET /api/v1/lots/{id}.
func (s *LotService) GetLot(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	lot, err := s.uc.GetLot(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, lot)
}

// ListLots handles GET /api/v1/lots.
func (s *LotService) ListLots(ctx khttp.Context) error {
	filter := &data.LotFilter{
		Page:     queryInt32(ctx, "page", 1),
		PageSize: queryInt32(ctx, "pageSize", 20),
		Status:   data.LotStatus(ctx.Query().Get("status")),
	}
	if raw := ctx.Query().Get("ingredientId"); raw != "" {
		filter.IngredientID = int64(queryInt32(ctx, "ingredientId", 0))
	}

	lots, total, err := s.uc.ListLots(ctx, filter)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, &listReply{Items: lots, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// adjustLotRequest corrects the remaining quantity after a stocktake.
type adjustLotRequest struct {
	RemainingQuantity float64 `json:"remainingQuantity"`
}

// AdjustLot handles POST /api/v1/lots/{id}/adjust.
func (s *LotService) AdjustLot(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var req adjustLotRequest
	if err := ctx.Bind(&req); err != nil {
		return kratoserrors.BadRequest("VALIDATION", "invalid request body")
	}

	lot, err := s.uc.AdjustLot(ctx, id, req.RemainingQuantity)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, lot)
}

// RecallLot handles POST /api/v1/lots/{id}/recall. The response carries the
// recalled lot and every run that consumed it.
func (s *LotService) RecallLot(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	result, err := s.uc.RecallLot(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, result)
}

// RunsByLot handles GET /api/v1/lots/{id}/runs.
func (s *LotService) RunsByLot(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	runs, err := s.uc.RunsByLot(ctx, id)
	if err != nil {
		return apiError(err)
	}
	return ctx.Result(200, map[string]interface{}{"items": runs, "total": len(runs)})
}
