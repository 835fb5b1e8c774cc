package service

import (
	"Proofline/internal/biz"
	"Proofline/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// HealthService exposes the database health report and the operator breaker
// reset.
type HealthService struct {
	uc     *biz.HealthUsecase
	logger *log.Helper
}

// NewHealthService creates a new health service.
func NewHealthService(uc *biz.HealthUsecase, logger log.Logger) *HealthService {
	return &HealthService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes mounts the health endpoint on the API router.
func (s *HealthService) RegisterRoutes(r *khttp.Router) {
	r.GET("/health/database", s.DatabaseHealth)
}

// RegisterAdminRoutes mounts the operator endpoints on the admin router.
func (s *HealthService) RegisterAdminRoutes(r *khttp.Router) {
	r.POST("/circuit-breaker/reset", s.ResetCircuitBreaker)
}

// DatabaseHealth handles GET /api/v1/health/database. Degraded systems still
// answer 200 so dashboards can read the report; only a critical status (open
// breaker or lost connectivity) turns the probe into a 503.
func (s *HealthService) DatabaseHealth(ctx khttp.Context) error {
	report := s.uc.BuildReport()
	code := 200
	if report.Status == model.HealthStatusCritical {
		code = 503
	}
	return ctx.JSON(code, report)
}

// ResetCircuitBreaker handles POST /api/v1/admin/circuit-breaker/reset.
func (s *HealthService) ResetCircuitBreaker(ctx khttp.Context) error {
	s.uc.ResetCircuitBreaker()
	report := s.uc.BuildReport()
	return ctx.Result(200, map[string]interface{}{
		"reset":          true,
		"circuitBreaker": report.CircuitBreaker,
	})
}
