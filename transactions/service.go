package transactions

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/datastore"
	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/hiro"
)

// DefaultMaxPages bounds the number of pages fetched per sync invocation.
// Re-invoking continues from where the store left off.
const DefaultMaxPages = 10000

const (
	// The very first page of a sync always bypasses the cache so "now" is
	// fresh; deeper pages are settled history and tolerate staleness.
	latestPageTTL  = 5 * time.Minute
	settledPageTTL = 30 * time.Minute
)

// PageFetcher fetches exactly one page of raw transactions.
type PageFetcher interface {
	GetTransactionsPage(ctx context.Context, q hiro.TransactionsPageQuery) (*hiro.TransactionsPage, error)
}

// Service orchestrates the two-phase transaction history sync on top of a
// Store and a PageFetcher. Single writer assumed; concurrent read-only
// queries are fine.
type Service struct {
	cfg     *configs.Config
	store   Store
	fetcher PageFetcher
	now     func() time.Time
}

type ServiceOption func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(cfg *configs.Config, store Store, fetcher PageFetcher, opts ...ServiceOption) *Service {
	svc := &Service{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) List(limit, offset int) ([]Transaction, error) {
	o := datastore.ParseListOptions(limit, offset)
	return s.store.Transactions(o)
}

func (s *Service) Details(txID string) (Transaction, error) {
	return s.store.Transaction(txID)
}

// Coverage describes the stored history window.
type Coverage struct {
	MinBlockTime *time.Time `json:"minBlockTime"`
	MaxBlockTime *time.Time `json:"maxBlockTime"`
	Count        int64      `json:"count"`
}

func (s *Service) Coverage() (Coverage, error) {
	var c Coverage
	min, _, err := s.store.MinTimes()
	if err != nil {
		return c, err
	}
	max, err := s.store.MaxBlockTime()
	if err != nil {
		return c, err
	}
	count, err := s.store.Count()
	if err != nil {
		return c, err
	}
	c.MinBlockTime = min
	c.MaxBlockTime = max
	c.Count = count
	return c, nil
}

// EnsureHistory brings stored transaction coverage from whatever it is to
// "now back through maxDays ago". Calling it repeatedly with the same
// arguments makes monotonic forward progress and converges to near-zero
// work. Fetch layer failures propagate unchanged; the store keeps whatever
// partial progress the last successful upsert left, so the correct recovery
// is simply to invoke again.
func (s *Service) EnsureHistory(ctx context.Context, maxDays int, forceRefresh bool, maxPages int) error {
	if maxDays <= 0 {
		return fmt.Errorf("%w: maxDays must be positive, got %d", errors.ErrInvalidArgument, maxDays)
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	if forceRefresh {
		if err := s.store.RemoveAllTransactions(); err != nil {
			return err
		}
	}

	if err := s.syncLatest(ctx, maxPages); err != nil {
		return err
	}

	cutoff := s.now().Add(-time.Duration(maxDays) * 24 * time.Hour)
	return s.syncHistorical(ctx, cutoff, maxPages)
}

// syncLatest advances the stored window forward to "now", walking backward
// from the most recent page until it reaches already stored history.
func (s *Service) syncLatest(ctx context.Context, maxPages int) error {
	maxTime, err := s.store.MaxBlockTime()
	if err != nil {
		return err
	}

	var cursor *int64
	for page := 1; page <= maxPages; page++ {
		first := cursor == nil
		ttl := settledPageTTL
		if first {
			ttl = latestPageTTL
		}

		log.WithFields(log.Fields{"page": page, "maxPages": maxPages}).
			Debug("Fetching latest transactions page")

		res, err := s.fetcher.GetTransactionsPage(ctx, hiro.TransactionsPageQuery{
			EndTime:      cursor,
			Limit:        hiro.TransactionPageLimit,
			ForceRefresh: first,
			TTL:          ttl,
		})
		if err != nil {
			return err
		}
		if len(res.Results) == 0 {
			return nil
		}

		rows := prepareTransactions(res.Results, s.now())
		var pageOldest *time.Time
		if len(rows) > 0 {
			if err := s.store.UpsertTransactions(rows); err != nil {
				return err
			}
			t := minBlockTime(rows)
			pageOldest = &t
		}

		next := pageCursor(res.Results)
		if next == nil {
			return nil
		}
		cursor = next

		// Overlap termination: this page already reaches into history a
		// previous run stored.
		if maxTime != nil && pageOldest != nil && !pageOldest.After(*maxTime) {
			return nil
		}
	}

	return nil
}

// syncHistorical extends the stored window backward until the oldest stored
// row is at or past the cutoff. A fully backfilled store exits before any
// fetch.
func (s *Service) syncHistorical(ctx context.Context, cutoff time.Time, maxPages int) error {
	minBlock, minBurn, err := s.store.MinTimes()
	if err != nil {
		return err
	}
	if minBlock != nil && !minBlock.After(cutoff) {
		return nil
	}

	cursorSource := minBurn
	if cursorSource == nil {
		cursorSource = minBlock
	}
	var cursor int64
	if cursorSource != nil {
		cursor = cursorSource.Unix() - 1
	} else {
		cursor = s.now().Unix()
	}

	minSeen := minBlock
	for page := 1; page <= maxPages; page++ {
		log.WithFields(log.Fields{"page": page, "maxPages": maxPages, "cursor": cursor}).
			Debug("Fetching historical transactions page")

		end := cursor
		res, err := s.fetcher.GetTransactionsPage(ctx, hiro.TransactionsPageQuery{
			EndTime: &end,
			Limit:   hiro.TransactionPageLimit,
			TTL:     settledPageTTL,
		})
		if err != nil {
			return err
		}
		if len(res.Results) == 0 {
			return nil
		}

		rows := prepareTransactions(res.Results, s.now())
		if len(rows) > 0 {
			if err := s.store.UpsertTransactions(rows); err != nil {
				return err
			}
			t := minBlockTime(rows)
			if minSeen == nil || t.Before(*minSeen) {
				minSeen = &t
			}
			if !minSeen.After(cutoff) {
				return nil
			}
		}

		next := pageCursor(res.Results)
		// The cursor must move strictly backward, or malformed upstream
		// data could loop forever.
		if next == nil || *next >= cursor {
			return nil
		}
		cursor = *next
	}

	return nil
}
