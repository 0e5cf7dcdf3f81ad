package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stx-labs/pox-data-api/balances"
	"github.com/stx-labs/pox-data-api/jobs"
)

// BalanceSnapshotJobType labels balance snapshot jobs in the job store.
const BalanceSnapshotJobType = "balance-snapshot"

// Balances is a HTTP server for wallet balance snapshots.
type Balances struct {
	service *balances.Service
	wp      *jobs.WorkerPool
}

func NewBalances(service *balances.Service, wp *jobs.WorkerPool) *Balances {
	return &Balances{service, wp}
}

func (s *Balances) List() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		asOf, err := parseDateQuery(r, "asOf", time.Now().UTC())
		if err != nil {
			handleError(rw, r, err)
			return
		}

		res, err := s.service.List(asOf)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		out := make([]balances.JSONResponse, 0, len(res))
		for _, b := range res {
			out = append(out, b.ToJSONResponse())
		}

		handleJsonResponse(rw, http.StatusOK, out)
	})
}

type snapshotRequest struct {
	Addresses []string `json:"addresses"`
	AsOf      string   `json:"asOf"`
}

// Snapshot schedules a balance snapshot job for the given addresses.
func (s *Balances) Snapshot() http.Handler {
	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := checkNonEmptyBody(r); err != nil {
			handleError(rw, r, err)
			return
		}

		var req snapshotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}

		asOf := time.Now().UTC()
		if req.AsOf != "" {
			parsed, err := time.Parse("2006-01-02", req.AsOf)
			if err != nil {
				handleError(rw, r, InvalidBodyError)
				return
			}
			asOf = parsed
		}

		job, err := s.wp.AddJob(BalanceSnapshotJobType, func() (string, error) {
			written, err := s.service.EnsureSnapshot(context.Background(), req.Addresses, asOf)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d balances written", written), nil
		})
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusCreated, job)
	})
	return UseJson(h)
}
