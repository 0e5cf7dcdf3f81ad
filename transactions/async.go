package transactions

import (
	"context"
	"fmt"

	"github.com/stx-labs/pox-data-api/jobs"
)

// SyncJobType labels history sync jobs in the job store.
const SyncJobType = "transaction-history-sync"

// AsyncService runs history syncs on a worker pool so HTTP callers get a
// job handle instead of holding a connection open for the whole backfill.
type AsyncService struct {
	service *Service
	wp      *jobs.WorkerPool
}

func NewAsyncService(service *Service, wp *jobs.WorkerPool) *AsyncService {
	return &AsyncService{service: service, wp: wp}
}

// EnsureHistoryAsync schedules a history sync and returns the job handle.
// A non-positive maxDays falls back to the configured default window.
func (s *AsyncService) EnsureHistoryAsync(maxDays int, forceRefresh bool, maxPages int) (*jobs.Job, error) {
	if maxDays <= 0 {
		maxDays = s.service.cfg.DefaultHistoryDays
	}
	return s.wp.AddJob(SyncJobType, func() (string, error) {
		if err := s.service.EnsureHistory(context.Background(), maxDays, forceRefresh, maxPages); err != nil {
			return "", err
		}
		coverage, err := s.service.Coverage()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d transactions stored", coverage.Count), nil
	})
}
