package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/stx-labs/pox-data-api/system"

	log "github.com/sirupsen/logrus"
)

// System is a HTTP server for system settings management.
type System struct {
	service *system.Service
}

func NewSystem(service *system.Service) *System {
	return &System{service}
}

func (s *System) GetSettings() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		res, err := s.service.GetSettings()
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res.ToJSON())
	})
}

func (s *System) SetSettings() http.Handler {
	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := checkNonEmptyBody(r); err != nil {
			handleError(rw, r, err)
			return
		}

		settings, err := s.service.GetSettings()
		if err != nil {
			handleError(rw, r, err)
			return
		}

		// Decode JSON over the existing settings so fields absent from the
		// request body stay untouched.
		settingsJSON := settings.ToJSON()
		if err := json.NewDecoder(r.Body).Decode(&settingsJSON); err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}

		if !settings.SyncPaused && settingsJSON.SyncPaused {
			log.Debug("Ingestion paused")
			if err := s.service.Pause(); err != nil {
				handleError(rw, r, err)
				return
			}
		} else if settings.SyncPaused && !settingsJSON.SyncPaused {
			log.Debug("Ingestion resumed")
			if err := s.service.Resume(); err != nil {
				handleError(rw, r, err)
				return
			}
		}

		settings, err = s.service.GetSettings()
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, settings.ToJSON())
	})
	return UseJson(h)
}
