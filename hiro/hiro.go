// Package hiro is a thin client for the Hiro Stacks API. Every method
// fetches exactly one page or object; looping over pages belongs to the
// calling service.
package hiro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/httpcache"
	"github.com/stx-labs/pox-data-api/httpclient"
)

const (
	transactionsPath      = "/extended/v1/tx"
	burnchainRewardsPath  = "/extended/v1/burnchain/rewards"
	blockByBurnHeightPath = "/extended/v1/block/by_burn_block_height"
	poxCyclesPath         = "/extended/v2/pox/cycles"
	addressBalancesPath   = "/extended/v1/address/%s/balances"
)

// TransactionPageLimit is the page size the transaction endpoint is always
// queried with. Pagination is cursor based, so the offset stays 0.
const TransactionPageLimit = 50

type Client struct {
	base   string
	client *httpclient.Client
}

func NewClient(cfg *configs.Config, cache *httpcache.Cache) *Client {
	headers := map[string]string{"User-Agent": "pox-data-api/1.0"}
	if cfg.HiroAPIKey != "" {
		headers["X-API-Key"] = cfg.HiroAPIKey
	}

	policy := httpclient.DefaultRetryPolicy()
	policy.MinBackoff = cfg.RetryMinBackoff
	policy.MaxBackoff = cfg.RetryMaxBackoff
	policy.MaxAttempts = cfg.RetryMaxAttempts

	return &Client{
		base: cfg.HiroAPIHost,
		client: httpclient.New(
			httpclient.WithHeaders(headers),
			httpclient.WithRetryPolicy(policy),
			httpclient.WithCache(cache),
		),
	}
}

func urlValues(m map[string]string) url.Values {
	v := url.Values{}
	for key, value := range m {
		v.Set(key, value)
	}
	return v
}

// RawTransaction carries the transaction list fields this system consumes.
// Fee fields are kept raw since the API serves them both as strings and as
// numbers depending on the transaction type.
type RawTransaction struct {
	TxID               string          `json:"tx_id"`
	BlockTime          *int64          `json:"block_time"`
	BlockHeight        int64           `json:"block_height"`
	BurnBlockTime      *int64          `json:"burn_block_time"`
	BurnBlockHeight    int64           `json:"burn_block_height"`
	SenderAddress      string          `json:"sender_address"`
	Fee                json.RawMessage `json:"fee"`
	FeeRate            json.RawMessage `json:"fee_rate"`
	TxType             string          `json:"tx_type"`
	Canonical          bool            `json:"canonical"`
	TxStatus           string          `json:"tx_status"`
	MicroblockSequence *int64          `json:"microblock_sequence"`
}

// FeeUstx resolves the fee from the two candidate fields, preferring "fee"
// over "fee_rate", and defaults to 0 when neither parses.
func (t *RawTransaction) FeeUstx() uint64 {
	if v, ok := parseUint(t.Fee); ok {
		return v
	}
	if v, ok := parseUint(t.FeeRate); ok {
		return v
	}
	return 0
}

func parseUint(raw json.RawMessage) (uint64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := string(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

type TransactionsPage struct {
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Total   int64            `json:"total"`
	Results []RawTransaction `json:"results"`
}

type TransactionsPageQuery struct {
	// EndTime bounds results to strictly before this unix time. Nil means
	// "most recent".
	EndTime      *int64
	Limit        int
	Offset       int
	ForceRefresh bool
	TTL          time.Duration
}

// GetTransactionsPage fetches one page of transactions, newest first.
func (c *Client) GetTransactionsPage(ctx context.Context, q TransactionsPageQuery) (*TransactionsPage, error) {
	limit := q.Limit
	if limit == 0 {
		limit = TransactionPageLimit
	}

	params := urlValues(map[string]string{
		"limit":      strconv.Itoa(limit),
		"offset":     strconv.Itoa(q.Offset),
		"unanchored": "false",
	})
	if q.EndTime != nil {
		params.Set("end_time", strconv.FormatInt(*q.EndTime, 10))
	}

	url := c.base + transactionsPath
	payload, err := c.client.Do(ctx, httpclient.Request{
		Method:       http.MethodGet,
		URL:          url,
		Params:       params,
		CachePrefix:  "hiro_tx",
		TTL:          q.TTL,
		ForceRefresh: q.ForceRefresh,
	})
	if err != nil {
		return nil, err
	}

	var page TransactionsPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, &httpclient.MalformedResponseError{URL: url}
	}

	return &page, nil
}

type BurnchainReward struct {
	BurnBlockHeight int64  `json:"burn_block_height"`
	BurnBlockHash   string `json:"burn_block_hash"`
	RewardRecipient string `json:"reward_recipient"`
	RewardAmount    string `json:"reward_amount"`
	RewardIndex     int    `json:"reward_index"`
}

type BurnchainRewardsPage struct {
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	Results []BurnchainReward `json:"results"`
}

type BurnchainRewardsQuery struct {
	Limit        int
	Offset       int
	StartHeight  *int64
	EndHeight    *int64
	ForceRefresh bool
	TTL          time.Duration
}

// GetBurnchainRewards fetches one offset-paginated page of burnchain
// reward payouts.
func (c *Client) GetBurnchainRewards(ctx context.Context, q BurnchainRewardsQuery) (*BurnchainRewardsPage, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 500
	}

	params := urlValues(map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(q.Offset),
	})
	if q.StartHeight != nil {
		params.Set("burn_block_height_gte", strconv.FormatInt(*q.StartHeight, 10))
	}
	if q.EndHeight != nil {
		params.Set("burn_block_height_lte", strconv.FormatInt(*q.EndHeight, 10))
	}

	url := c.base + burnchainRewardsPath
	payload, err := c.client.Do(ctx, httpclient.Request{
		Method:       http.MethodGet,
		URL:          url,
		Params:       params,
		CachePrefix:  "hiro_rewards",
		TTL:          q.TTL,
		ForceRefresh: q.ForceRefresh,
	})
	if err != nil {
		return nil, err
	}

	var page BurnchainRewardsPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, &httpclient.MalformedResponseError{URL: url}
	}

	return &page, nil
}

type AnchorBlock struct {
	BurnBlockHeight      int64  `json:"burn_block_height"`
	BurnBlockTime        int64  `json:"burn_block_time"`
	BurnBlockTimeISO     string `json:"burn_block_time_iso"`
	Hash                 string `json:"hash"`
	Height               int64  `json:"height"`
	MinerTxID            string `json:"miner_txid"`
	ParentIndexBlockHash string `json:"parent_index_block_hash"`
}

// GetBlockByBurnHeight fetches the anchor block metadata for a burn height.
func (c *Client) GetBlockByBurnHeight(ctx context.Context, burnHeight int64, forceRefresh bool) (*AnchorBlock, error) {
	url := fmt.Sprintf("%s%s/%d", c.base, blockByBurnHeightPath, burnHeight)
	payload, err := c.client.Do(ctx, httpclient.Request{
		Method:       http.MethodGet,
		URL:          url,
		CachePrefix:  "hiro_block_burn",
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return nil, err
	}

	var block AnchorBlock
	if err := json.Unmarshal(payload, &block); err != nil {
		return nil, &httpclient.MalformedResponseError{URL: url}
	}

	return &block, nil
}

type PoxCycle struct {
	CycleNumber        int64  `json:"cycle_number"`
	BlockHeight        int64  `json:"block_height"`
	IndexBlockHash     string `json:"index_block_hash"`
	TotalWeight        int64  `json:"total_weight"`
	TotalStackedAmount string `json:"total_stacked_amount"`
	TotalSigners       int64  `json:"total_signers"`
}

type PoxCyclesPage struct {
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
	Results []PoxCycle `json:"results"`
}

// GetPoxCycles fetches one offset-paginated page of PoX cycles.
func (c *Client) GetPoxCycles(ctx context.Context, limit, offset int, forceRefresh bool) (*PoxCyclesPage, error) {
	if limit == 0 {
		limit = 200
	}

	params := urlValues(map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	})

	url := c.base + poxCyclesPath
	payload, err := c.client.Do(ctx, httpclient.Request{
		Method:       http.MethodGet,
		URL:          url,
		Params:       params,
		CachePrefix:  "hiro_pox_cycles",
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return nil, err
	}

	var page PoxCyclesPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, &httpclient.MalformedResponseError{URL: url}
	}

	return &page, nil
}

type AddressBalances struct {
	Stx struct {
		Balance string `json:"balance"`
		Locked  string `json:"locked"`
	} `json:"stx"`
}

// GetAddressBalances fetches the current balances of one address.
func (c *Client) GetAddressBalances(ctx context.Context, address string, forceRefresh bool) (*AddressBalances, error) {
	url := c.base + fmt.Sprintf(addressBalancesPath, address)
	payload, err := c.client.Do(ctx, httpclient.Request{
		Method:       http.MethodGet,
		URL:          url,
		CachePrefix:  "hiro_balances",
		TTL:          6 * time.Hour,
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return nil, err
	}

	var balances AddressBalances
	if err := json.Unmarshal(payload, &balances); err != nil {
		return nil, &httpclient.MalformedResponseError{URL: url}
	}

	return &balances, nil
}
