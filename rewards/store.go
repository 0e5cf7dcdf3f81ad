package rewards

// Store manages data regarding burnchain reward aggregates.
type Store interface {
	// Aggregates lists aggregates, optionally bounded by burn height,
	// ordered by burn height.
	Aggregates(startHeight, endHeight *int64) ([]RewardAggregate, error)
	// UpsertAggregates inserts or replaces aggregates in one transaction.
	UpsertAggregates(rows []RewardAggregate) error
}
