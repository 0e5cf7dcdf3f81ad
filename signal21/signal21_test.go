package signal21

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stx-labs/pox-data-api/configs"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&configs.Config{
		Signal21APIHost:  srv.URL,
		RetryMaxAttempts: 1,
	}, nil)
}

func TestGetPriceSeriesQueryShape(t *testing.T) {
	var gotQuery map[string]string
	client := testClient(t, func(rw http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		rw.Write([]byte(`[{"ts":"2024-01-05T00:00:00Z","price":1.52}]`))
	})

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	points, err := client.GetPriceSeries(context.Background(), "STX-USD", from, to, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].Price != 1.52 {
		t.Fatalf("points not decoded: %+v", points)
	}
	if !points[0].Ts.Equal(time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp not parsed: %v", points[0].Ts)
	}

	want := map[string]string{"symbol": "STX-USD", "from": "2024-01-01", "to": "2024-01-31"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s: got %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestRunSQLFollowsOffsetCursor(t *testing.T) {
	var offsets []int64
	var badBody error
	client := testClient(t, func(rw http.ResponseWriter, r *http.Request) {
		// The wire body must be the query object itself, not a re-encoded
		// string of it.
		var body struct {
			Query  string `json:"query"`
			Offset int64  `json:"offset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			badBody = err
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Query != "SELECT height, sats FROM rewards" {
			badBody = fmt.Errorf("query field not sent, got %q", body.Query)
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		offsets = append(offsets, body.Offset)

		if body.Offset == 0 {
			rw.Write([]byte(`{"columns":{"height":[1,2],"sats":[100,200]},"next":2}`))
			return
		}
		rw.Write([]byte(`{"columns":{"height":[3],"sats":[300]}}`))
	})

	records, err := client.RunSQL(context.Background(), "SELECT height, sats FROM rewards", false)
	if badBody != nil {
		t.Fatalf("malformed request body: %v", badBody)
	}
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if len(offsets) != 2 || offsets[1] != 2 {
		t.Fatalf("cursor not followed: %v", offsets)
	}
	if string(records[2]["height"]) != "3" {
		t.Errorf("columnar flatten wrong: %v", records[2])
	}
}

func TestRunSQLRejectsRaggedColumns(t *testing.T) {
	client := testClient(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`{"columns":{"a":[1,2],"b":[1]}}`))
	})

	if _, err := client.RunSQL(context.Background(), "SELECT 1", false); err == nil {
		t.Fatal("expected ragged column error")
	}
}
