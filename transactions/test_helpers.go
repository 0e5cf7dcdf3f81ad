package transactions

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stx-labs/pox-data-api/datastore"
)

var errNotFound = errors.New("record not found")

// testStore is an in-memory Store used by engine tests so pagination logic
// can be exercised without an embedded database.
type testStore struct {
	mu      sync.Mutex
	rows    map[string]Transaction
	upserts int
	removes int
}

func newTestStore() *testStore {
	return &testStore{rows: map[string]Transaction{}}
}

func (s *testStore) Transactions(o datastore.ListOptions) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt := make([]Transaction, 0, len(s.rows))
	for _, t := range s.rows {
		tt = append(tt, t)
	}
	sort.Slice(tt, func(i, j int) bool {
		return tt[i].BlockTime.After(tt[j].BlockTime)
	})
	if o.Offset > 0 {
		if o.Offset >= len(tt) {
			return []Transaction{}, nil
		}
		tt = tt[o.Offset:]
	}
	if o.Limit >= 0 && o.Limit < len(tt) {
		tt = tt[:o.Limit]
	}
	return tt, nil
}

func (s *testStore) Transaction(txID string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[txID]
	if !ok {
		return Transaction{}, errNotFound
	}
	return t, nil
}

func (s *testStore) UpsertTransactions(tt []Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	for _, t := range tt {
		s.rows[t.TxID] = t
	}
	return nil
}

func (s *testStore) MaxBlockTime() (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max *time.Time
	for _, t := range s.rows {
		bt := t.BlockTime
		if max == nil || bt.After(*max) {
			max = &bt
		}
	}
	return max, nil
}

func (s *testStore) MinTimes() (*time.Time, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var minBlock, minBurn *time.Time
	for _, t := range s.rows {
		bt := t.BlockTime
		if minBlock == nil || bt.Before(*minBlock) {
			minBlock = &bt
		}
		if t.BurnBlockTime != nil {
			ct := *t.BurnBlockTime
			if minBurn == nil || ct.Before(*minBurn) {
				minBurn = &ct
			}
		}
	}
	return minBlock, minBurn, nil
}

func (s *testStore) Count() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func (s *testStore) RemoveAllTransactions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	s.rows = map[string]Transaction{}
	return nil
}
