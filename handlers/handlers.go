// Package handlers provides HTTP handlers for different services across the
// application.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/httpclient"

	goErrors "errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var InvalidBodyError = &errors.RequestError{
	StatusCode: http.StatusBadRequest,
	Err:        fmt.Errorf("invalid body"),
}

// handleError is a helper function for unified HTTP error handling.
func handleError(rw http.ResponseWriter, r *http.Request, err error) {
	log.WithFields(log.Fields{"error": err}).Warn("Request failed")

	var reqErr *errors.RequestError
	if goErrors.As(err, &reqErr) {
		http.Error(rw, reqErr.Error(), reqErr.StatusCode)
		return
	}

	if goErrors.Is(err, errors.ErrInvalidArgument) {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	if goErrors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(rw, "record not found", http.StatusNotFound)
		return
	}

	// Upstream API trouble maps to 502 so callers can tell it apart from
	// local faults.
	var transient *httpclient.TransientError
	var permanent *httpclient.PermanentError
	var malformed *httpclient.MalformedResponseError
	if goErrors.As(err, &transient) || goErrors.As(err, &permanent) || goErrors.As(err, &malformed) {
		http.Error(rw, "upstream API error", http.StatusBadGateway)
		return
	}

	var queueFull *errors.JobQueueFull
	if goErrors.As(err, &queueFull) {
		http.Error(rw, queueFull.Error(), http.StatusServiceUnavailable)
		return
	}

	// Otherwise do not send data regarding the error
	http.Error(rw, "Error", http.StatusInternalServerError)
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(res)
}

func checkNonEmptyBody(r *http.Request) error {
	if r.Body == nil || r.ContentLength == 0 {
		return &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("empty body"),
		}
	}
	return nil
}

// parseDateQuery reads a YYYY-MM-DD query parameter, falling back to the
// given default when absent.
func parseDateQuery(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("invalid %s date, expected YYYY-MM-DD", name),
		}
	}
	return t, nil
}
