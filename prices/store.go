package prices

import "time"

// Store manages data regarding stored price series.
type Store interface {
	// Bars lists bars of one symbol between two timestamps, inclusive,
	// ordered by timestamp.
	Bars(symbol string, start, end time.Time) ([]PriceBar, error)
	// UpsertBars inserts or replaces bars in one transaction.
	UpsertBars(rows []PriceBar) error
}
