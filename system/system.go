package system

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Settings is the single row of operator-controlled switches. SyncPaused
// stops new ingestion jobs from being accepted while reads stay available.
type Settings struct {
	gorm.Model
	SyncPaused  bool         `gorm:"column:sync_paused;default:false"`
	PausedSince sql.NullTime `gorm:"column:paused_since"`
}

func (s *Settings) String() string {
	return fmt.Sprintf("SyncPaused: %t", s.SyncPaused)
}

func (Settings) TableName() string {
	return "system_settings"
}

// Convert to JSON version
func (s *Settings) ToJSON() SettingsJSON {
	return SettingsJSON{
		SyncPaused: s.SyncPaused,
	}
}

func (s *Settings) IsSyncPaused() bool {
	return s.SyncPaused
}

// Update fields according to JSON version
func (s *Settings) FromJSON(j SettingsJSON) {
	s.SyncPaused = j.SyncPaused
}

type SettingsJSON struct {
	SyncPaused bool `json:"syncPaused"`
}
