package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/jobs"
	"github.com/stx-labs/pox-data-api/rewards"

	"github.com/gorilla/mux"
)

// RewardSyncJobType labels burnchain reward ingestion jobs in the job store.
const RewardSyncJobType = "burnchain-reward-sync"

// Rewards is a HTTP server for burnchain reward aggregates and PoX cycles.
type Rewards struct {
	service *rewards.Service
	wp      *jobs.WorkerPool
}

func NewRewards(service *rewards.Service, wp *jobs.WorkerPool) *Rewards {
	return &Rewards{service, wp}
}

func parseHeightQuery(r *http.Request, name string) (*int64, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("invalid %s burn height", name),
		}
	}
	return &v, nil
}

func (s *Rewards) List() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		start, err := parseHeightQuery(r, "start")
		if err != nil {
			handleError(rw, r, err)
			return
		}
		end, err := parseHeightQuery(r, "end")
		if err != nil {
			handleError(rw, r, err)
			return
		}

		res, err := s.service.List(start, end)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		out := make([]rewards.JSONResponse, 0, len(res))
		for _, a := range res {
			out = append(out, a.ToJSONResponse())
		}

		handleJsonResponse(rw, http.StatusOK, out)
	})
}

type rewardSyncRequest struct {
	StartHeight  *int64 `json:"startHeight"`
	EndHeight    *int64 `json:"endHeight"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// Sync schedules a burnchain reward ingestion job.
func (s *Rewards) Sync() http.Handler {
	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var req rewardSyncRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				handleError(rw, r, InvalidBodyError)
				return
			}
		}

		job, err := s.wp.AddJob(RewardSyncJobType, func() (string, error) {
			written, err := s.service.SyncRewards(context.Background(), req.StartHeight, req.EndHeight, req.ForceRefresh)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d burn blocks aggregated", written), nil
		})
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusCreated, job)
	})
	return UseJson(h)
}

// AnchorBlock serves the anchor block metadata of one burn height.
func (s *Rewards) AnchorBlock() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		height, err := strconv.ParseInt(vars["burnHeight"], 10, 64)
		if err != nil {
			handleError(rw, r, &errors.RequestError{
				StatusCode: http.StatusBadRequest,
				Err:        fmt.Errorf("invalid burn height"),
			})
			return
		}

		res, err := s.service.AnchorBlock(r.Context(), height)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res)
	})
}

// PoxCycles serves one page of PoX cycles from the upstream API.
func (s *Rewards) PoxCycles() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.FormValue("limit"))
		if err != nil {
			limit = 0
		}

		offset, err := strconv.Atoi(r.FormValue("offset"))
		if err != nil {
			offset = 0
		}

		res, err := s.service.PoxCycles(r.Context(), limit, offset)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res)
	})
}
