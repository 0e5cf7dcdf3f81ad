package rewards

import (
	"strconv"
	"time"

	"github.com/stx-labs/pox-data-api/hiro"
)

// RewardAggregate sums the burnchain reward payouts of one burn block.
type RewardAggregate struct {
	BurnBlockHeight  int64     `gorm:"column:burn_block_height;primaryKey"`
	RewardAmountSats uint64    `gorm:"column:reward_amount_sats"`
	RewardRecipients int64     `gorm:"column:reward_recipients"`
	IngestedAt       time.Time `gorm:"column:ingested_at"`
}

func (RewardAggregate) TableName() string {
	return "burnchain_rewards"
}

type JSONResponse struct {
	BurnBlockHeight  int64     `json:"burnBlockHeight"`
	RewardAmountSats uint64    `json:"rewardAmountSats"`
	RewardRecipients int64     `json:"rewardRecipients"`
	IngestedAt       time.Time `json:"ingestedAt"`
}

func (a RewardAggregate) ToJSONResponse() JSONResponse {
	return JSONResponse{
		BurnBlockHeight:  a.BurnBlockHeight,
		RewardAmountSats: a.RewardAmountSats,
		RewardRecipients: a.RewardRecipients,
		IngestedAt:       a.IngestedAt,
	}
}

// rewardSats parses the payout amount, defaulting to 0 when it does
// not parse.
func rewardSats(r hiro.BurnchainReward) uint64 {
	v, err := strconv.ParseUint(r.RewardAmount, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
