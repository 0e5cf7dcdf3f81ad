package prices

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	db.AutoMigrate(&PriceBar{})
	return &GormStore{db}
}

func (s *GormStore) Bars(symbol string, start, end time.Time) (rows []PriceBar, err error) {
	err = s.db.
		Where("symbol = ? AND ts >= ? AND ts <= ?", symbol, start, end).
		Order("ts asc").
		Find(&rows).Error
	return
}

func (s *GormStore) UpsertBars(rows []PriceBar) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}
