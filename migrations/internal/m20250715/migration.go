package m20250715

import (
	"time"

	"gorm.io/gorm"
)

const ID = "20250715"

// 10 STX in micro-STX, the default funded threshold at the time this
// migration shipped.
const fundedBackfillUstx = 10_000_000

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

func Migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&WalletBalance{}); err != nil {
		return err
	}

	return tx.Exec(
		"UPDATE wallet_balances SET funded = balance_ustx >= ?",
		fundedBackfillUstx,
	).Error
}

func Rollback(tx *gorm.DB) error {
	if err := tx.Migrator().DropColumn(&WalletBalance{}, "Funded"); err != nil {
		return err
	}

	return nil
}
