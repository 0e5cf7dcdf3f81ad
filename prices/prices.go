package prices

import (
	"time"
)

const (
	SymbolStxUsd = "STX-USD"
	SymbolBtcUsd = "BTC-USD"
)

// PriceBar is one stored price observation of one symbol.
type PriceBar struct {
	Symbol     string    `gorm:"column:symbol;primaryKey"`
	Ts         time.Time `gorm:"column:ts;primaryKey"`
	PriceUsd   float64   `gorm:"column:price_usd"`
	IngestedAt time.Time `gorm:"column:ingested_at"`
}

func (PriceBar) TableName() string {
	return "price_bars"
}

type JSONResponse struct {
	Symbol     string    `json:"symbol"`
	Ts         time.Time `json:"ts"`
	PriceUsd   float64   `json:"priceUsd"`
	IngestedAt time.Time `json:"ingestedAt"`
}

func (b PriceBar) ToJSONResponse() JSONResponse {
	return JSONResponse{
		Symbol:     b.Symbol,
		Ts:         b.Ts,
		PriceUsd:   b.PriceUsd,
		IngestedAt: b.IngestedAt,
	}
}

// PanelRow joins the two tracked symbols at one timestamp. StxBtc is the
// cross rate, zero when either leg is missing.
type PanelRow struct {
	Ts     time.Time `json:"ts"`
	StxUsd float64   `json:"stxUsd"`
	BtcUsd float64   `json:"btcUsd"`
	StxBtc float64   `json:"stxBtc"`
}

// dateChunk is a closed calendar day interval.
type dateChunk struct {
	start time.Time
	end   time.Time
}

func (c dateChunk) spanDays() int {
	return int(c.end.Sub(c.start).Hours() / 24)
}

// splitChunks cuts [start, end] into intervals of at most maxDays days each.
func splitChunks(start, end time.Time, maxDays int) []dateChunk {
	var chunks []dateChunk
	current := start
	for !current.After(end) {
		chunkEnd := current.AddDate(0, 0, maxDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, dateChunk{start: current, end: chunkEnd})
		if !chunkEnd.Before(end) {
			break
		}
		current = chunkEnd.AddDate(0, 0, 1)
	}
	return chunks
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
