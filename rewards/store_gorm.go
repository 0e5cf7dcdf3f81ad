package rewards

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	db.AutoMigrate(&RewardAggregate{})
	return &GormStore{db}
}

func (s *GormStore) Aggregates(startHeight, endHeight *int64) (rows []RewardAggregate, err error) {
	q := s.db.Order("burn_block_height asc")
	if startHeight != nil {
		q = q.Where("burn_block_height >= ?", *startHeight)
	}
	if endHeight != nil {
		q = q.Where("burn_block_height <= ?", *endHeight)
	}
	err = q.Find(&rows).Error
	return
}

func (s *GormStore) UpsertAggregates(rows []RewardAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}
