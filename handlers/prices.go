package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stx-labs/pox-data-api/jobs"
	"github.com/stx-labs/pox-data-api/prices"
)

// PriceSyncJobType labels price panel ingestion jobs in the job store.
const PriceSyncJobType = "price-panel-sync"

// Prices is a HTTP server for price series.
type Prices struct {
	service *prices.Service
	wp      *jobs.WorkerPool
}

func NewPrices(service *prices.Service, wp *jobs.WorkerPool) *Prices {
	return &Prices{service, wp}
}

// Panel serves the joined STX-USD / BTC-USD series from the store.
func (s *Prices) Panel() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()

		start, err := parseDateQuery(r, "start", now.AddDate(0, 0, -30))
		if err != nil {
			handleError(rw, r, err)
			return
		}
		end, err := parseDateQuery(r, "end", now)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		res, err := s.service.Panel(start, end)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res)
	})
}

type priceSyncRequest struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// Sync schedules a price panel ingestion job over the requested date range.
func (s *Prices) Sync() http.Handler {
	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := checkNonEmptyBody(r); err != nil {
			handleError(rw, r, err)
			return
		}

		var req priceSyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}

		start, err := time.Parse("2006-01-02", req.Start)
		if err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}
		end, err := time.Parse("2006-01-02", req.End)
		if err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}

		job, err := s.wp.AddJob(PriceSyncJobType, func() (string, error) {
			if err := s.service.EnsurePanel(context.Background(), start, end, req.ForceRefresh); err != nil {
				return "", err
			}
			return fmt.Sprintf("panel synced %s..%s", req.Start, req.End), nil
		})
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusCreated, job)
	})
	return UseJson(h)
}
