package transactions

import (
	"time"

	"github.com/stx-labs/pox-data-api/hiro"
)

// StatusSuccess is the only transaction status eligible for storage.
const StatusSuccess = "success"

// Transaction is the database model for canonical ledger transactions.
type Transaction struct {
	TxID               string     `gorm:"column:tx_id;primaryKey"`
	BlockTime          time.Time  `gorm:"column:block_time;index"`
	BlockHeight        int64      `gorm:"column:block_height"`
	SenderAddress      string     `gorm:"column:sender_address;index"`
	FeeUstx            uint64     `gorm:"column:fee_ustx"`
	TxType             string     `gorm:"column:tx_type"`
	Canonical          bool       `gorm:"column:canonical"`
	TxStatus           string     `gorm:"column:tx_status"`
	BurnBlockTime      *time.Time `gorm:"column:burn_block_time"`
	BurnBlockHeight    int64      `gorm:"column:burn_block_height"`
	MicroblockSequence *int64     `gorm:"column:microblock_sequence"`
	IngestedAt         time.Time  `gorm:"column:ingested_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Transaction JSON HTTP response
type JSONResponse struct {
	TxID            string     `json:"txId"`
	BlockTime       time.Time  `json:"blockTime"`
	BlockHeight     int64      `json:"blockHeight"`
	SenderAddress   string     `json:"senderAddress"`
	FeeUstx         uint64     `json:"feeUstx"`
	TxType          string     `json:"txType"`
	BurnBlockTime   *time.Time `json:"burnBlockTime,omitempty"`
	BurnBlockHeight int64      `json:"burnBlockHeight"`
	IngestedAt      time.Time  `json:"ingestedAt"`
}

func (t Transaction) ToJSONResponse() JSONResponse {
	return JSONResponse{
		TxID:            t.TxID,
		BlockTime:       t.BlockTime,
		BlockHeight:     t.BlockHeight,
		SenderAddress:   t.SenderAddress,
		FeeUstx:         t.FeeUstx,
		TxType:          t.TxType,
		BurnBlockTime:   t.BurnBlockTime,
		BurnBlockHeight: t.BurnBlockHeight,
		IngestedAt:      t.IngestedAt,
	}
}

type TimeRefKind int

const (
	TimeAbsent TimeRefKind = iota
	TimeObserved
	TimeCanonical
)

// TimeRef is the resolved ordering time of a raw record. The settlement
// layer (burn chain) time is preferred over the ledger local block time.
type TimeRef struct {
	Kind TimeRefKind
	Unix int64
}

func ResolveTimeRef(tx *hiro.RawTransaction) TimeRef {
	if tx.BurnBlockTime != nil {
		return TimeRef{Kind: TimeCanonical, Unix: *tx.BurnBlockTime}
	}
	if tx.BlockTime != nil {
		return TimeRef{Kind: TimeObserved, Unix: *tx.BlockTime}
	}
	return TimeRef{Kind: TimeAbsent}
}

// prepareTransactions filters raw records down to storable rows. A record
// is kept only with a non-empty sender, canonical flag, success status and
// a present block time; everything else is discarded for good.
func prepareTransactions(results []hiro.RawTransaction, now time.Time) []Transaction {
	rows := make([]Transaction, 0, len(results))
	for i := range results {
		raw := &results[i]
		if raw.SenderAddress == "" || !raw.Canonical || raw.TxStatus != StatusSuccess || raw.BlockTime == nil {
			continue
		}

		var burnTime *time.Time
		if raw.BurnBlockTime != nil {
			t := time.Unix(*raw.BurnBlockTime, 0).UTC()
			burnTime = &t
		}

		rows = append(rows, Transaction{
			TxID:               raw.TxID,
			BlockTime:          time.Unix(*raw.BlockTime, 0).UTC(),
			BlockHeight:        raw.BlockHeight,
			SenderAddress:      raw.SenderAddress,
			FeeUstx:            raw.FeeUstx(),
			TxType:             raw.TxType,
			Canonical:          raw.Canonical,
			TxStatus:           raw.TxStatus,
			BurnBlockTime:      burnTime,
			BurnBlockHeight:    raw.BurnBlockHeight,
			MicroblockSequence: raw.MicroblockSequence,
			IngestedAt:         now,
		})
	}
	return rows
}

// pageCursor derives the next end_time cursor from a page: one second
// before the earliest candidate time seen. Nil when no record had a usable
// timestamp, which terminates pagination.
func pageCursor(results []hiro.RawTransaction) *int64 {
	var earliest *int64
	for i := range results {
		ref := ResolveTimeRef(&results[i])
		if ref.Kind == TimeAbsent {
			continue
		}
		u := ref.Unix
		if earliest == nil || u < *earliest {
			earliest = &u
		}
	}
	if earliest == nil {
		return nil
	}
	next := *earliest - 1
	return &next
}

func minBlockTime(rows []Transaction) time.Time {
	min := rows[0].BlockTime
	for _, r := range rows[1:] {
		if r.BlockTime.Before(min) {
			min = r.BlockTime
		}
	}
	return min
}
