package rewards

import (
	"context"
	"sort"
	"time"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/hiro"

	log "github.com/sirupsen/logrus"
)

const rewardsPageLimit = 500

// RewardFetcher fetches burnchain reward pages and anchor block metadata
// from the upstream API.
type RewardFetcher interface {
	GetBurnchainRewards(ctx context.Context, q hiro.BurnchainRewardsQuery) (*hiro.BurnchainRewardsPage, error)
	GetBlockByBurnHeight(ctx context.Context, burnHeight int64, forceRefresh bool) (*hiro.AnchorBlock, error)
	GetPoxCycles(ctx context.Context, limit, offset int, forceRefresh bool) (*hiro.PoxCyclesPage, error)
}

// Service ingests and serves burnchain reward aggregates.
type Service struct {
	cfg     *configs.Config
	store   Store
	fetcher RewardFetcher
	now     func() time.Time
}

func NewService(cfg *configs.Config, store Store, fetcher RewardFetcher) *Service {
	return &Service{cfg: cfg, store: store, fetcher: fetcher, now: time.Now}
}

func (s *Service) List(startHeight, endHeight *int64) ([]RewardAggregate, error) {
	return s.store.Aggregates(startHeight, endHeight)
}

// SyncRewards walks the offset-paginated reward payouts inside the given
// burn height bounds, aggregates them per burn block, and stores the
// aggregates. Returns the number of burn blocks written.
func (s *Service) SyncRewards(ctx context.Context, startHeight, endHeight *int64, forceRefresh bool) (int, error) {
	type acc struct {
		sats       uint64
		recipients int64
	}
	byHeight := map[int64]*acc{}

	offset := 0
	for page := 0; page < s.cfg.SyncMaxPages; page++ {
		resp, err := s.fetcher.GetBurnchainRewards(ctx, hiro.BurnchainRewardsQuery{
			Limit:        rewardsPageLimit,
			Offset:       offset,
			StartHeight:  startHeight,
			EndHeight:    endHeight,
			ForceRefresh: forceRefresh,
		})
		if err != nil {
			return 0, err
		}
		if len(resp.Results) == 0 {
			break
		}

		for _, r := range resp.Results {
			a := byHeight[r.BurnBlockHeight]
			if a == nil {
				a = &acc{}
				byHeight[r.BurnBlockHeight] = a
			}
			a.sats += rewardSats(r)
			a.recipients++
		}

		offset += len(resp.Results)
		if len(resp.Results) < rewardsPageLimit {
			break
		}
	}

	ingested := s.now().UTC()
	rows := make([]RewardAggregate, 0, len(byHeight))
	for height, a := range byHeight {
		rows = append(rows, RewardAggregate{
			BurnBlockHeight:  height,
			RewardAmountSats: a.sats,
			RewardRecipients: a.recipients,
			IngestedAt:       ingested,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BurnBlockHeight < rows[j].BurnBlockHeight })

	if err := s.store.UpsertAggregates(rows); err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"burnBlocks": len(rows),
		"payouts":    offset,
	}).Info("Burnchain reward sync complete")

	return len(rows), nil
}

// AnchorBlock fetches the anchor block metadata of one burn height.
func (s *Service) AnchorBlock(ctx context.Context, burnHeight int64) (*hiro.AnchorBlock, error) {
	return s.fetcher.GetBlockByBurnHeight(ctx, burnHeight, false)
}

// PoxCycles passes through one page of PoX cycles.
func (s *Service) PoxCycles(ctx context.Context, limit, offset int) (*hiro.PoxCyclesPage, error) {
	return s.fetcher.GetPoxCycles(ctx, limit, offset, false)
}
