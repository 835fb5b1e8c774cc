package server

import (
	"context"
	"time"

	"Proofline/internal/biz"
	pkglog "Proofline/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

const (
	// Cron expressions use the seconds-first format (sec min hour dom mon dow).
	expirySweepSpec  = "0 0 * * * *"   // hourly, on the hour
	lowStockScanSpec = "0 */5 * * * *" // every 5 minutes

	sweepTimeout = 5 * time.Minute
	scanTimeout  = 2 * time.Minute
)

// CronServer runs the background housekeeping jobs as a Kratos transport
// server so they share the application lifecycle: the expiry sweep moves
// lapsed lots out of the available pool and the low-stock scan logs
// ingredients that dropped below their reorder level.
type CronServer struct {
	cron        *cron.Cron
	lots        *biz.LotUsecase
	ingredients *biz.IngredientUsecase
	log         *pkglog.LogHelper
}

// NewCronServer registers the scheduled jobs. Registration failures are
// returned rather than logged so a broken schedule fails startup.
func NewCronServer(lots *biz.LotUsecase, ingredients *biz.IngredientUsecase, logger log.Logger) (*CronServer, error) {
	s := &CronServer{
		cron:        cron.New(cron.WithSeconds()),
		lots:        lots,
		ingredients: ingredients,
		log:         pkglog.NewLogHelper(logger),
	}

	if _, err := s.cron.AddFunc(expirySweepSpec, s.runExpirySweep); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(lowStockScanSpec, s.runLowStockScan); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the schedule. It does not block; cron runs jobs on its own
// goroutines.
func (s *CronServer) Start(ctx context.Context) error {
	s.cron.Start()
	s.log.Startup("cron server started",
		"expiry_sweep", expirySweepSpec,
		"low_stock_scan", lowStockScanSpec,
	)
	return nil
}

// Stop halts the schedule and waits for running jobs, bounded by ctx.
func (s *CronServer) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.log.Cron("cron server stopped")
	return nil
}

func (s *CronServer) runExpirySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	s.log.Cron("lot expiry sweep starting")
	expired, err := s.lots.SweepExpiredLots(ctx)
	if err != nil {
		s.log.Errorw(
			"msg", "lot expiry sweep failed",
			"error", err,
			"type", "cron",
		)
		return
	}
	s.log.Cron("lot expiry sweep finished", "expired_lots", expired)
}

func (s *CronServer) runLowStockScan() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	low, err := s.ingredients.ScanLowStock(ctx)
	if err != nil {
		s.log.Errorw(
			"msg", "low stock scan failed",
			"error", err,
			"type", "cron",
		)
		return
	}
	if len(low) > 0 {
		s.log.Cron("low stock scan finished", "below_reorder_level", len(low))
	}
}
