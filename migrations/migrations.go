package migrations

import (
	"github.com/stx-labs/pox-data-api/migrations/internal/m20250610"
	"github.com/stx-labs/pox-data-api/migrations/internal/m20250715"

	"github.com/go-gormigrate/gormigrate/v2"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID:       m20250610.ID,
			Migrate:  m20250610.Migrate,
			Rollback: m20250610.Rollback,
		},
		{
			ID:       m20250715.ID,
			Migrate:  m20250715.Migrate,
			Rollback: m20250715.Rollback,
		},
	}
}
