package balances

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	db.AutoMigrate(&WalletBalance{})
	return &GormStore{db}
}

func (s *GormStore) Balances(asOf time.Time) (rows []WalletBalance, err error) {
	err = s.db.
		Where("as_of_date = ?", snapshotDate(asOf)).
		Order("address asc").
		Find(&rows).Error
	return
}

func (s *GormStore) ExistingAddresses(asOf time.Time, addresses []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(addresses))
	if len(addresses) == 0 {
		return existing, nil
	}

	var found []string
	err := s.db.Model(&WalletBalance{}).
		Where("as_of_date = ? AND address IN ?", snapshotDate(asOf), addresses).
		Pluck("address", &found).Error
	if err != nil {
		return nil, err
	}

	for _, a := range found {
		existing[a] = true
	}
	return existing, nil
}

func (s *GormStore) UpsertBalances(rows []WalletBalance) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}
