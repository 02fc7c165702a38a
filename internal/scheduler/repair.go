package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"habboverify/internal/logger"
	"habboverify/internal/services"
)

const repairJobTimeout = 5 * time.Minute

// Repairer is what the scheduled job runs.
type Repairer interface {
	Run(ctx context.Context) (services.RepairReport, error)
}

// RepairScheduler runs the repair pass on a cron spec. Runs never overlap.
type RepairScheduler struct {
	cron    *cron.Cron
	repair  Repairer
	spec    string
	mu      sync.Mutex
	running bool
}

func NewRepairScheduler(repair Repairer, spec string) *RepairScheduler {
	return &RepairScheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		repair: repair,
		spec:   spec,
	}
}

// Start schedules the job. An empty spec disables the scheduler.
func (s *RepairScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("repair scheduler already running")
	}
	if s.spec == "" {
		logger.Log.Info("[repair][cron] disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("repair schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.running = true
	logger.Log.Infof("[repair][cron] scheduled %q", s.spec)
	return nil
}

// Stop waits for a running job to finish.
func (s *RepairScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

func (s *RepairScheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, repairJobTimeout)
	defer cancel()

	report, err := s.repair.Run(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("[repair][cron] run failed")
		return
	}
	logger.Log.Infof("[repair][cron] done granted=%d revoked=%d duplicates=%d",
		report.Granted, report.Revoked, report.DuplicateClaims)
}
