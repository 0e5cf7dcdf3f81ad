package balances

import "time"

// Store manages data regarding wallet balance snapshots.
type Store interface {
	// Balances lists snapshots taken on the given date.
	Balances(asOf time.Time) ([]WalletBalance, error)
	// ExistingAddresses returns the subset of addresses that already have a
	// snapshot on the given date.
	ExistingAddresses(asOf time.Time, addresses []string) (map[string]bool, error)
	// UpsertBalances inserts or replaces snapshots in one transaction.
	UpsertBalances(rows []WalletBalance) error
}
