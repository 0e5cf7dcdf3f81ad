package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stx-labs/pox-data-api/transactions"

	"github.com/gorilla/mux"
)

// Transactions is a HTTP server for transaction history.
type Transactions struct {
	service *transactions.Service
	async   *transactions.AsyncService
}

func NewTransactions(service *transactions.Service, async *transactions.AsyncService) *Transactions {
	return &Transactions{service, async}
}

func (s *Transactions) List() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.FormValue("limit"))
		if err != nil {
			limit = 0
		}

		offset, err := strconv.Atoi(r.FormValue("offset"))
		if err != nil {
			offset = 0
		}

		res, err := s.service.List(limit, offset)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		out := make([]transactions.JSONResponse, 0, len(res))
		for _, tx := range res {
			out = append(out, tx.ToJSONResponse())
		}

		handleJsonResponse(rw, http.StatusOK, out)
	})
}

func (s *Transactions) Details() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		res, err := s.service.Details(vars["transactionId"])
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res.ToJSONResponse())
	})
}

func (s *Transactions) Coverage() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		res, err := s.service.Coverage()
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res)
	})
}

type syncRequest struct {
	MaxDays      int  `json:"maxDays"`
	ForceRefresh bool `json:"forceRefresh"`
	MaxPages     int  `json:"maxPages"`
}

// Sync schedules a history sync job and returns its handle.
func (s *Transactions) Sync() http.Handler {
	h := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var req syncRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				handleError(rw, r, InvalidBodyError)
				return
			}
		}

		job, err := s.async.EnsureHistoryAsync(req.MaxDays, req.ForceRefresh, req.MaxPages)
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusCreated, job)
	})
	return UseJson(h)
}
