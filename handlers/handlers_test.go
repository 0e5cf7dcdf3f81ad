package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/httpclient"
	"github.com/stx-labs/pox-data-api/system"

	"gorm.io/gorm"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			"request error keeps its status",
			&errors.RequestError{StatusCode: http.StatusNotFound, Err: fmt.Errorf("nope")},
			http.StatusNotFound,
		},
		{
			"invalid argument is a client fault",
			fmt.Errorf("maxDays: %w", errors.ErrInvalidArgument),
			http.StatusBadRequest,
		},
		{
			"missing record",
			gorm.ErrRecordNotFound,
			http.StatusNotFound,
		},
		{
			"upstream transient trouble",
			&httpclient.TransientError{StatusCode: 502, URL: "hiro"},
			http.StatusBadGateway,
		},
		{
			"upstream permanent rejection",
			&httpclient.PermanentError{StatusCode: 404, URL: "hiro"},
			http.StatusBadGateway,
		},
		{
			"full job queue",
			&errors.JobQueueFull{Err: fmt.Errorf("QueueFull")},
			http.StatusServiceUnavailable,
		},
		{
			"anything else stays opaque",
			fmt.Errorf("secret internal detail"),
			http.StatusInternalServerError,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), c.err)
			if rec.Code != c.want {
				t.Errorf("got %d, want %d", rec.Code, c.want)
			}
		})
	}

	// Internal error text must not leak
	rec := httptest.NewRecorder()
	handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("secret internal detail"))
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("internal error details leaked to the client")
	}
}

type settingsStore struct {
	settings system.Settings
}

func (s *settingsStore) GetSettings() (*system.Settings, error) {
	out := s.settings
	if out.ID == 0 {
		out.ID = 1
	}
	return &out, nil
}

func (s *settingsStore) SaveSettings(settings *system.Settings) error {
	s.settings = *settings
	return nil
}

func TestSystemSetSettingsTogglesPause(t *testing.T) {
	store := &settingsStore{}
	handler := NewSystem(system.NewService(store))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/system/settings", strings.NewReader(`{"syncPaused":true}`))
	req.Header.Set("Content-Type", "application/json")
	handler.SetSettings().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.settings.SyncPaused {
		t.Fatal("pause switch not persisted")
	}
	if !store.settings.PausedSince.Valid {
		t.Fatal("pause timestamp not recorded")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/system/settings", strings.NewReader(`{"syncPaused":false}`))
	req.Header.Set("Content-Type", "application/json")
	handler.SetSettings().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	if store.settings.SyncPaused {
		t.Fatal("pause switch not lifted")
	}
}

func TestSystemSetSettingsRejectsEmptyBody(t *testing.T) {
	handler := NewSystem(system.NewService(&settingsStore{}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/system/settings", nil)
	req.Header.Set("Content-Type", "application/json")
	handler.SetSettings().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
