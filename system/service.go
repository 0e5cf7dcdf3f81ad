package system

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store}
}

func (svc *Service) GetSettings() (*Settings, error) {
	return svc.store.GetSettings()
}

func (svc *Service) SaveSettings(settings *Settings) error {
	if settings.ID == 0 {
		return fmt.Errorf("settings object has no ID, get an existing settings first and alter it")
	}
	log.WithFields(log.Fields{"settings": settings}).Trace("Save system settings")
	return svc.store.SaveSettings(settings)
}

// Pause stops new ingestion jobs from being accepted.
func (svc *Service) Pause() error {
	settings, err := svc.GetSettings()
	if err != nil {
		return err
	}
	settings.SyncPaused = true
	settings.PausedSince = sql.NullTime{Time: time.Now(), Valid: true}
	return svc.SaveSettings(settings)
}

// Resume lifts a pause.
func (svc *Service) Resume() error {
	settings, err := svc.GetSettings()
	if err != nil {
		return err
	}
	settings.SyncPaused = false
	settings.PausedSince = sql.NullTime{}
	return svc.SaveSettings(settings)
}

// IsSyncPaused reports the pause switch, defaulting to running when the
// settings cannot be read.
func (svc *Service) IsSyncPaused() bool {
	settings, err := svc.GetSettings()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Could not read system settings")
		return false
	}
	return settings.IsSyncPaused()
}
