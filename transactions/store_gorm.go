package transactions

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stx-labs/pox-data-api/datastore"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	db.AutoMigrate(&Transaction{})
	return &GormStore{db}
}

func (s *GormStore) Transactions(o datastore.ListOptions) (tt []Transaction, err error) {
	err = s.db.
		Order("block_time desc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&tt).Error
	return
}

func (s *GormStore) Transaction(txID string) (t Transaction, err error) {
	err = s.db.First(&t, "tx_id = ?", txID).Error
	return
}

func (s *GormStore) UpsertTransactions(tt []Transaction) error {
	if len(tt) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&tt).Error
	})
}

func (s *GormStore) MaxBlockTime() (*time.Time, error) {
	var max sql.NullTime
	row := s.db.Model(&Transaction{}).Select("MAX(block_time)").Row()
	if err := row.Scan(&max); err != nil {
		return nil, err
	}
	return nullableTime(max), nil
}

func (s *GormStore) MinTimes() (*time.Time, *time.Time, error) {
	var minBlock, minBurn sql.NullTime
	row := s.db.Model(&Transaction{}).Select("MIN(block_time), MIN(burn_block_time)").Row()
	if err := row.Scan(&minBlock, &minBurn); err != nil {
		return nil, nil, err
	}
	return nullableTime(minBlock), nullableTime(minBurn), nil
}

func (s *GormStore) Count() (count int64, err error) {
	err = s.db.Model(&Transaction{}).Count(&count).Error
	return
}

func (s *GormStore) RemoveAllTransactions() error {
	return s.db.Exec("DELETE FROM transactions").Error
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
