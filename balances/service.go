package balances

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/hiro"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// BalanceFetcher fetches current balances of one address from the upstream API.
type BalanceFetcher interface {
	GetAddressBalances(ctx context.Context, address string, forceRefresh bool) (*hiro.AddressBalances, error)
}

// Service lists and ingests wallet balance snapshots.
type Service struct {
	cfg     *configs.Config
	store   Store
	fetcher BalanceFetcher
	limiter ratelimit.Limiter
	now     func() time.Time
}

func NewService(cfg *configs.Config, store Store, fetcher BalanceFetcher) *Service {
	rate := cfg.BalanceRequestRate
	if rate <= 0 {
		rate = 1
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		limiter: ratelimit.New(rate),
		now:     time.Now,
	}
}

func (s *Service) List(asOf time.Time) ([]WalletBalance, error) {
	return s.store.Balances(asOf)
}

// EnsureSnapshot fetches and stores a balance snapshot for each address that
// does not already have one on the given date. Fetches are paced by the
// configured request rate. A failed address is logged and skipped so one bad
// address cannot sink the whole snapshot; it stays absent and is retried on
// the next run. Returns the number of snapshots written.
func (s *Service) EnsureSnapshot(ctx context.Context, addresses []string, asOf time.Time) (int, error) {
	if len(addresses) == 0 {
		return 0, fmt.Errorf("no addresses given: %w", errors.ErrInvalidArgument)
	}
	if len(addresses) > s.cfg.BalanceSnapshotMaxAddr {
		return 0, fmt.Errorf(
			"too many addresses: %d > %d: %w",
			len(addresses), s.cfg.BalanceSnapshotMaxAddr, errors.ErrInvalidArgument,
		)
	}

	asOf = snapshotDate(asOf)
	addresses = dedupe(addresses)

	existing, err := s.store.ExistingAddresses(asOf, addresses)
	if err != nil {
		return 0, err
	}

	fundedCutoff := uint64(s.cfg.FundedThresholdStx * MicroStxPerStx)

	var rows []WalletBalance
	var failed int
	for _, address := range addresses {
		if existing[address] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		s.limiter.Take()

		payload, err := s.fetcher.GetAddressBalances(ctx, address, false)
		if err != nil {
			failed++
			log.WithFields(log.Fields{
				"address": address,
				"error":   err,
			}).Warn("Balance fetch failed, skipping address")
			continue
		}

		ustx := extractBalance(payload)
		rows = append(rows, WalletBalance{
			Address:     address,
			AsOfDate:    asOf,
			BalanceUstx: ustx,
			Funded:      ustx >= fundedCutoff,
			IngestedAt:  s.now().UTC(),
		})
	}

	if err := s.store.UpsertBalances(rows); err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"asOf":    asOf.Format("2006-01-02"),
		"written": len(rows),
		"skipped": len(addresses) - len(rows) - failed,
		"failed":  failed,
	}).Info("Balance snapshot complete")

	return len(rows), nil
}

func dedupe(addresses []string) []string {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
