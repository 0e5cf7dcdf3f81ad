// Package gorm opens the application database from environment
// configuration. Table migrations live with their owning stores and in the
// migrations package.
package gorm

import (
	"fmt"

	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	cfg := ParseConfig()
	db, err := gorm.Open(cfg.Dialector, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.DatabaseType, err)
	}
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("unable to access underlying database: %s", err))
	}
	if err := sqlDB.Close(); err != nil {
		panic(fmt.Sprintf("unable to close database: %s", err))
	}
}
