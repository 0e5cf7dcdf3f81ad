package transactions

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/datastore"
	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/hiro"
	"github.com/stx-labs/pox-data-api/httpclient"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeUpstream serves pages out of a fixed newest-first transaction list,
// honoring the end_time upper bound the way the real API does.
type fakeUpstream struct {
	txs     []hiro.RawTransaction
	calls   int
	queries []hiro.TransactionsPageQuery
	failOn  func(call int) error
}

func (f *fakeUpstream) GetTransactionsPage(ctx context.Context, q hiro.TransactionsPageQuery) (*hiro.TransactionsPage, error) {
	f.calls++
	f.queries = append(f.queries, q)
	if f.failOn != nil {
		if err := f.failOn(f.calls); err != nil {
			return nil, err
		}
	}

	limit := q.Limit
	if limit == 0 {
		limit = hiro.TransactionPageLimit
	}

	var out []hiro.RawTransaction
	for _, tx := range f.txs {
		ref := ResolveTimeRef(&tx)
		if ref.Kind != TimeAbsent && q.EndTime != nil && ref.Unix > *q.EndTime {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}

	return &hiro.TransactionsPage{Limit: limit, Results: out}, nil
}

func rawTx(id string, blockUnix int64) hiro.RawTransaction {
	burn := blockUnix // anchored in the same instant unless a test says otherwise
	return hiro.RawTransaction{
		TxID:          id,
		BlockTime:     &blockUnix,
		BurnBlockTime: &burn,
		BlockHeight:   blockUnix / 600,
		SenderAddress: "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
		TxType:        "token_transfer",
		Canonical:     true,
		TxStatus:      StatusSuccess,
	}
}

// ledger returns count transactions spaced step apart, newest first, the
// newest at end.
func ledger(end time.Time, count int, step time.Duration) []hiro.RawTransaction {
	txs := make([]hiro.RawTransaction, count)
	for i := 0; i < count; i++ {
		ts := end.Add(-time.Duration(i) * step).Unix()
		txs[i] = rawTx(txID(i), ts)
	}
	return txs
}

func txID(i int) string {
	return "0x" + string(rune('a'+i/26%26)) + string(rune('a'+i%26)) + "tx"
}

func testService(store Store, fetcher PageFetcher) *Service {
	cfg := &configs.Config{}
	return NewService(cfg, store, fetcher, WithClock(func() time.Time { return testNow }))
}

func TestEnsureHistoryRejectsNonPositiveDays(t *testing.T) {
	store := newTestStore()
	upstream := &fakeUpstream{}
	svc := testService(store, upstream)

	err := svc.EnsureHistory(context.Background(), 0, false, 10)
	if !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	if upstream.calls != 0 {
		t.Fatalf("expected zero fetches, got %d", upstream.calls)
	}
}

func TestEnsureHistoryEmptyStoreBackfill(t *testing.T) {
	// 150 transactions spaced 6h apart span ~37 days, so the Phase A walk
	// alone reaches past the 30 day target and Phase B does zero fetches.
	upstream := &fakeUpstream{txs: ledger(testNow.Add(-time.Minute), 150, 6*time.Hour)}
	store := newTestStore()
	svc := testService(store, upstream)

	if err := svc.EnsureHistory(context.Background(), 30, false, DefaultMaxPages); err != nil {
		t.Fatal(err)
	}

	count, _ := store.Count()
	if count != 150 {
		t.Errorf("expected 150 stored rows, got %d", count)
	}

	// Three full pages, one empty page, nothing from Phase B.
	if upstream.calls != 4 {
		t.Errorf("expected 4 page fetches, got %d", upstream.calls)
	}

	if !upstream.queries[0].ForceRefresh {
		t.Error("expected the first page of a sync to bypass the cache")
	}
	if upstream.queries[1].ForceRefresh {
		t.Error("expected later pages to allow cached responses")
	}
}

func TestEnsureHistoryIsIdempotent(t *testing.T) {
	upstream := &fakeUpstream{txs: ledger(testNow.Add(-time.Minute), 150, 6*time.Hour)}
	store := newTestStore()
	svc := testService(store, upstream)

	if err := svc.EnsureHistory(context.Background(), 30, false, DefaultMaxPages); err != nil {
		t.Fatal(err)
	}
	first, _ := store.Transactions(listAll())

	callsAfterFirst := upstream.calls
	if err := svc.EnsureHistory(context.Background(), 30, false, DefaultMaxPages); err != nil {
		t.Fatal(err)
	}
	second, _ := store.Transactions(listAll())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("store state changed on re-invocation (-first +second):\n%s", diff)
	}

	// The second run pays one overlap-detection page in Phase A and exits
	// Phase B before any fetch.
	if got := upstream.calls - callsAfterFirst; got != 1 {
		t.Errorf("expected 1 fetch on the converged re-run, got %d", got)
	}
}

func TestSyncLatestOverlapTermination(t *testing.T) {
	txs := ledger(testNow.Add(-time.Minute), 200, 6*time.Hour)
	upstream := &fakeUpstream{txs: txs}
	store := newTestStore()

	// Seed everything but the newest 60: the store is stale by 60 records.
	seed := prepareTransactions(txs[60:], testNow.Add(-time.Hour))
	if err := store.UpsertTransactions(seed); err != nil {
		t.Fatal(err)
	}

	svc := testService(store, upstream)
	if err := svc.syncLatest(context.Background(), DefaultMaxPages); err != nil {
		t.Fatal(err)
	}

	// Page 1 is all new, page 2 overlaps stored history; pagination must
	// stop there.
	if upstream.calls != 2 {
		t.Errorf("expected 2 page fetches, got %d", upstream.calls)
	}

	count, _ := store.Count()
	if count != 200 {
		t.Errorf("expected full coverage of 200 rows, got %d", count)
	}
}

func TestSyncHistoricalEarlyExit(t *testing.T) {
	upstream := &fakeUpstream{txs: ledger(testNow.Add(-time.Minute), 150, 6*time.Hour)}
	store := newTestStore()
	seed := prepareTransactions(upstream.txs, testNow.Add(-time.Hour))
	if err := store.UpsertTransactions(seed); err != nil {
		t.Fatal(err)
	}

	svc := testService(store, upstream)
	cutoff := testNow.Add(-30 * 24 * time.Hour)
	if err := svc.syncHistorical(context.Background(), cutoff, DefaultMaxPages); err != nil {
		t.Fatal(err)
	}

	if upstream.calls != 0 {
		t.Errorf("expected zero fetches for an already covered window, got %d", upstream.calls)
	}
}

func TestSyncHistoricalStopsWithoutBackwardProgress(t *testing.T) {
	// A malformed upstream keeps returning records newer than the cursor,
	// which would never advance pagination backward.
	stuck := []hiro.RawTransaction{
		rawTx("0xstuck1", testNow.Add(-time.Hour).Unix()),
		rawTx("0xstuck2", testNow.Add(-2*time.Hour).Unix()),
	}
	upstream := &stuckUpstream{page: stuck}
	store := newTestStore()
	seed := prepareTransactions([]hiro.RawTransaction{
		rawTx("0xseed", testNow.Add(-3*time.Hour).Unix()),
	}, testNow)
	if err := store.UpsertTransactions(seed); err != nil {
		t.Fatal(err)
	}

	svc := testService(store, upstream)
	cutoff := testNow.Add(-30 * 24 * time.Hour)
	if err := svc.syncHistorical(context.Background(), cutoff, DefaultMaxPages); err != nil {
		t.Fatal(err)
	}

	if upstream.calls != 1 {
		t.Errorf("expected the loop to stop after one non-advancing page, got %d fetches", upstream.calls)
	}
}

// stuckUpstream ignores the cursor entirely.
type stuckUpstream struct {
	page  []hiro.RawTransaction
	calls int
}

func (f *stuckUpstream) GetTransactionsPage(ctx context.Context, q hiro.TransactionsPageQuery) (*hiro.TransactionsPage, error) {
	f.calls++
	return &hiro.TransactionsPage{Results: f.page}, nil
}

func TestEnsureHistoryForceRefreshWipesBeforeFetching(t *testing.T) {
	store := newTestStore()
	seed := prepareTransactions([]hiro.RawTransaction{
		rawTx("0xold", testNow.Add(-time.Hour).Unix()),
	}, testNow)
	if err := store.UpsertTransactions(seed); err != nil {
		t.Fatal(err)
	}

	var countAtFirstFetch int64 = -1
	upstream := &fakeUpstream{
		txs: ledger(testNow.Add(-time.Minute), 40, 24*time.Hour),
	}
	upstream.failOn = func(call int) error {
		if call == 1 {
			countAtFirstFetch, _ = store.Count()
		}
		return nil
	}

	svc := testService(store, upstream)
	if err := svc.EnsureHistory(context.Background(), 30, true, DefaultMaxPages); err != nil {
		t.Fatal(err)
	}

	if countAtFirstFetch != 0 {
		t.Errorf("expected the table to be wiped before the first fetch, had %d rows", countAtFirstFetch)
	}

	count, _ := store.Count()
	if count != 40 {
		t.Errorf("expected 40 rows after refetch, got %d", count)
	}
}

func TestEnsureHistoryKeepsPartialProgressOnFailure(t *testing.T) {
	upstream := &fakeUpstream{txs: ledger(testNow.Add(-time.Minute), 150, 6*time.Hour)}
	upstream.failOn = func(call int) error {
		if call == 3 {
			return &httpclient.TransientError{StatusCode: 500, URL: "https://api.test/extended/v1/tx"}
		}
		return nil
	}

	store := newTestStore()
	svc := testService(store, upstream)

	err := svc.EnsureHistory(context.Background(), 30, false, DefaultMaxPages)
	var te *httpclient.TransientError
	if !stderrors.As(err, &te) {
		t.Fatalf("expected TransientError to propagate, got %v", err)
	}

	// Two successful pages were committed before the failure.
	count, _ := store.Count()
	if count != 100 {
		t.Errorf("expected 100 rows of partial progress, got %d", count)
	}
}

func TestEnsureHistoryMaxPagesBoundsWork(t *testing.T) {
	upstream := &fakeUpstream{txs: ledger(testNow.Add(-time.Minute), 500, time.Hour)}
	store := newTestStore()
	svc := testService(store, upstream)

	if err := svc.EnsureHistory(context.Background(), 60, false, 2); err != nil {
		t.Fatal(err)
	}

	// Both phases are bounded by maxPages.
	if upstream.calls > 4 {
		t.Errorf("expected at most 4 fetches with maxPages=2, got %d", upstream.calls)
	}

	count, _ := store.Count()
	if count == 0 {
		t.Error("expected partial coverage to be committed")
	}
}

func listAll() datastore.ListOptions {
	return datastore.ListOptions{Limit: -1}
}
