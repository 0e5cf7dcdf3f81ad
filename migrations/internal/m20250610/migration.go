package m20250610

import (
	"time"

	"gorm.io/gorm"
)

const ID = "20250610"

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

func Migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&Transaction{}); err != nil {
		return err
	}

	return nil
}

func Rollback(tx *gorm.DB) error {
	if err := tx.Migrator().DropColumn(&Transaction{}, "MicroblockSequence"); err != nil {
		return err
	}

	return nil
}
