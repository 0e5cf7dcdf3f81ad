package prices

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/httpclient"
	"github.com/stx-labs/pox-data-api/signal21"

	log "github.com/sirupsen/logrus"
)

const (
	maxChunkDays = 30
	minChunkDays = 5
)

// SeriesFetcher fetches a price series from the upstream API.
type SeriesFetcher interface {
	GetPriceSeries(ctx context.Context, symbol string, from, to time.Time, forceRefresh bool) ([]signal21.PricePoint, error)
}

// Service ingests and serves price series.
type Service struct {
	cfg     *configs.Config
	store   Store
	fetcher SeriesFetcher
	now     func() time.Time
}

func NewService(cfg *configs.Config, store Store, fetcher SeriesFetcher) *Service {
	return &Service{cfg: cfg, store: store, fetcher: fetcher, now: time.Now}
}

// EnsureSeries fetches and stores the price series of one symbol between two
// dates, inclusive. The range is fetched in chunks of at most 30 days. A
// chunk that keeps failing transiently is split in half and each half is
// retried on its own; once a failing chunk is 5 days or shorter it is logged
// and skipped, so one bad window upstream cannot sink the whole range.
// Returns the number of bars written.
func (s *Service) EnsureSeries(ctx context.Context, symbol string, start, end time.Time, forceRefresh bool) (int, error) {
	if symbol == "" {
		return 0, fmt.Errorf("empty symbol: %w", errors.ErrInvalidArgument)
	}
	start, end = dateOnly(start), dateOnly(end)
	if start.After(end) {
		return 0, fmt.Errorf("start after end: %w", errors.ErrInvalidArgument)
	}

	queue := splitChunks(start, end, maxChunkDays)

	var rows []PriceBar
	seen := map[time.Time]bool{}
	for len(queue) > 0 {
		chunk := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		points, err := s.fetcher.GetPriceSeries(ctx, symbol, chunk.start, chunk.end, forceRefresh)
		if err != nil {
			if !httpclient.IsTransient(err) {
				return 0, err
			}
			if chunk.spanDays() <= minChunkDays {
				log.WithFields(log.Fields{
					"symbol": symbol,
					"from":   chunk.start.Format("2006-01-02"),
					"to":     chunk.end.Format("2006-01-02"),
					"error":  err,
				}).Warn("Price chunk repeatedly failed, skipping")
				continue
			}
			midpoint := chunk.start.AddDate(0, 0, chunk.spanDays()/2)
			queue = append([]dateChunk{
				{start: chunk.start, end: midpoint},
				{start: midpoint.AddDate(0, 0, 1), end: chunk.end},
			}, queue...)
			continue
		}

		ingested := s.now().UTC()
		for _, p := range points {
			ts := p.Ts.UTC()
			if seen[ts] {
				continue
			}
			seen[ts] = true
			rows = append(rows, PriceBar{
				Symbol:     symbol,
				Ts:         ts,
				PriceUsd:   p.Price,
				IngestedAt: ingested,
			})
		}
	}

	if err := s.store.UpsertBars(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// EnsurePanel ingests both tracked symbols over the given range.
func (s *Service) EnsurePanel(ctx context.Context, start, end time.Time, forceRefresh bool) error {
	for _, symbol := range []string{SymbolStxUsd, SymbolBtcUsd} {
		if _, err := s.EnsureSeries(ctx, symbol, start, end, forceRefresh); err != nil {
			return err
		}
	}
	return nil
}

// Panel joins the stored STX-USD and BTC-USD series on timestamp. Rows where
// only one leg exists keep the other leg and the cross rate at zero.
func (s *Service) Panel(start, end time.Time) ([]PanelRow, error) {
	stx, err := s.store.Bars(SymbolStxUsd, start, end)
	if err != nil {
		return nil, err
	}
	btc, err := s.store.Bars(SymbolBtcUsd, start, end)
	if err != nil {
		return nil, err
	}

	byTs := map[time.Time]*PanelRow{}
	for _, b := range stx {
		byTs[b.Ts] = &PanelRow{Ts: b.Ts, StxUsd: b.PriceUsd}
	}
	for _, b := range btc {
		row, ok := byTs[b.Ts]
		if !ok {
			row = &PanelRow{Ts: b.Ts}
			byTs[b.Ts] = row
		}
		row.BtcUsd = b.PriceUsd
		if row.StxUsd != 0 && row.BtcUsd != 0 {
			row.StxBtc = row.StxUsd / row.BtcUsd
		}
	}

	rows := make([]PanelRow, 0, len(byTs))
	for _, row := range byTs {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ts.Before(rows[j].Ts) })
	return rows, nil
}
