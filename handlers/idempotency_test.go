package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func idempotentServer(opts IdempotencyHandlerOptions) http.Handler {
	inner := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusCreated)
	})
	return IdempotencyHandler(inner, opts, NewIdempotencyStoreLocal())
}

func TestIdempotencyHandlerRejectsReplay(t *testing.T) {
	h := idempotentServer(IdempotencyHandlerOptions{Expiry: time.Hour})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/sync", nil)
	req.Header.Set("Idempotency-Key", "abc-123")
	h.ServeHTTP(first, req)
	if first.Code != http.StatusCreated {
		t.Fatalf("first request: got %d", first.Code)
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/transactions/sync", nil)
	req.Header.Set("Idempotency-Key", "abc-123")
	h.ServeHTTP(second, req)
	if second.Code != http.StatusConflict {
		t.Fatalf("replay: got %d, want %d", second.Code, http.StatusConflict)
	}
}

func TestIdempotencyHandlerRequiresKeyOnPost(t *testing.T) {
	h := idempotentServer(IdempotencyHandlerOptions{Expiry: time.Hour})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/transactions/sync", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestIdempotencyHandlerIgnoresReads(t *testing.T) {
	h := idempotentServer(IdempotencyHandlerOptions{Expiry: time.Hour})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/transactions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("GET must pass through, got %d", rec.Code)
	}
}

func TestIdempotencyHandlerIgnoresConfiguredPaths(t *testing.T) {
	h := idempotentServer(IdempotencyHandlerOptions{
		Expiry:      time.Hour,
		IgnorePaths: []string{"/v1/health"},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/health/ready", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("ignored path must pass through, got %d", rec.Code)
	}
}

func TestLocalStoreExpiresKeys(t *testing.T) {
	store := NewIdempotencyStoreLocal()

	if err := store.Set("k", -time.Second); err != nil {
		t.Fatal(err)
	}
	found, err := store.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expired key must read as absent")
	}
}
