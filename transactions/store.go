package transactions

import (
	"time"

	"github.com/stx-labs/pox-data-api/datastore"
)

// Store manages data regarding transactions.
type Store interface {
	Transactions(datastore.ListOptions) ([]Transaction, error)
	Transaction(txID string) (Transaction, error)
	// UpsertTransactions inserts-or-replaces rows by primary key. The batch
	// is applied atomically so a failed page can be retried whole.
	UpsertTransactions([]Transaction) error
	MaxBlockTime() (*time.Time, error)
	// MinTimes returns the minimum observed block time and the minimum burn
	// block time across all rows, either being nil on an empty table.
	MinTimes() (minBlock *time.Time, minBurn *time.Time, err error)
	Count() (int64, error)
	RemoveAllTransactions() error
}
