// Package middleware holds HTTP middleware that needs more than a gorilla
// one-liner.
package middleware

import (
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	log "github.com/sirupsen/logrus"
)

// responseSnooper records what the wrapped handler wrote so the access log
// can report status and size without buffering the response.
type responseSnooper struct {
	w      http.ResponseWriter
	status int
	size   int
}

func (s *responseSnooper) Write(b []byte) (int, error) {
	n, err := s.w.Write(b)
	s.size += n
	return n, err
}

func (s *responseSnooper) WriteHeader(code int) {
	s.w.WriteHeader(code)
	s.status = code
}

func makeSnooper(w http.ResponseWriter) (*responseSnooper, http.ResponseWriter) {
	// Status defaults to 200 since handlers that only Write never call
	// WriteHeader.
	snooper := &responseSnooper{w: w, status: http.StatusOK}

	hooks := httpsnoop.Hooks{
		Write: func(httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return snooper.Write
		},
		WriteHeader: func(httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return snooper.WriteHeader
		},
	}

	return snooper, httpsnoop.Wrap(w, hooks)
}

// LoggingHandler emits one structured access log line per request. Sync
// endpoints only schedule jobs, so a slow duration here points at the
// database or a read endpoint, never at upstream fetches.
func LoggingHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()
		snooper, rw := makeSnooper(rw)

		h.ServeHTTP(rw, r)

		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.RequestURI,
			"remote":     r.RemoteAddr,
			"user-agent": r.UserAgent(),
			"status":     snooper.status,
			"size":       snooper.size,
			"durationMs": float64(time.Since(start).Microseconds()) / 1000,
		}).Info("HTTP request")
	})
}
