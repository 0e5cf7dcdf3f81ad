package balances

import (
	"strconv"
	"time"

	"github.com/stx-labs/pox-data-api/hiro"
)

const MicroStxPerStx = 1_000_000

// WalletBalance is one balance snapshot of one address on one date. Failed
// fetches are never recorded, so they are retried on the next run.
type WalletBalance struct {
	Address     string    `gorm:"column:address;primaryKey"`
	AsOfDate    time.Time `gorm:"column:as_of_date;primaryKey"`
	BalanceUstx uint64    `gorm:"column:balance_ustx"`
	Funded      bool      `gorm:"column:funded"`
	IngestedAt  time.Time `gorm:"column:ingested_at"`
}

func (WalletBalance) TableName() string {
	return "wallet_balances"
}

type JSONResponse struct {
	Address     string    `json:"address"`
	AsOfDate    string    `json:"asOfDate"`
	BalanceUstx uint64    `json:"balanceUstx"`
	Funded      bool      `json:"funded"`
	IngestedAt  time.Time `json:"ingestedAt"`
}

func (b WalletBalance) ToJSONResponse() JSONResponse {
	return JSONResponse{
		Address:     b.Address,
		AsOfDate:    b.AsOfDate.Format("2006-01-02"),
		BalanceUstx: b.BalanceUstx,
		Funded:      b.Funded,
		IngestedAt:  b.IngestedAt,
	}
}

// extractBalance reads the spendable balance, falling back to the locked
// amount, defaulting to 0 when neither parses.
func extractBalance(payload *hiro.AddressBalances) uint64 {
	if payload == nil {
		return 0
	}
	if v, err := strconv.ParseUint(payload.Stx.Balance, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(payload.Stx.Locked, 10, 64); err == nil {
		return v
	}
	return 0
}

// snapshotDate truncates to a UTC calendar date, the snapshot granularity.
func snapshotDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
