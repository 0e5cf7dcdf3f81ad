package handlers

import (
	"net/http"
	"strconv"

	"github.com/stx-labs/pox-data-api/jobs"

	"github.com/gorilla/mux"
)

// Jobs is a HTTP server for jobs.
type Jobs struct {
	service *jobs.Service
}

func NewJobs(service *jobs.Service) *Jobs {
	return &Jobs{service}
}

func (s *Jobs) List() http.Handler {
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

		handleJsonResponse(rw, http.StatusOK, res)
	})
}

func (s *Jobs) Details() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		res, err := s.service.Details(vars["jobId"])
		if err != nil {
			handleError(rw, r, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, res)
	})
}
