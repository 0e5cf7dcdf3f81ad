package httpcache

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := url.Values{}
	a.Set("limit", "50")
	a.Set("offset", "0")
	a.Set("end_time", "1700000000")

	b := url.Values{}
	b.Set("end_time", "1700000000")
	b.Set("offset", "0")
	b.Set("limit", "50")

	k1 := Key("GET", "https://api.test/extended/v1/tx", a, nil)
	k2 := Key("get", "https://api.test/extended/v1/tx", b, nil)
	if k1 != k2 {
		t.Error("expected identical keys regardless of parameter order and method case")
	}

	b.Set("offset", "50")
	if k1 == Key("GET", "https://api.test/extended/v1/tx", b, nil) {
		t.Error("expected a differing parameter to change the key")
	}

	if k1 == Key("GET", "https://api.test/extended/v1/tx", a, []byte(`{"q":1}`)) {
		t.Error("expected a body to change the key")
	}
}

func TestGetPutRoundtrip(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := Key("GET", "https://api.test/v1/price", nil, nil)
	if _, ok := c.Get("prices", key, time.Hour); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	if err := c.Put("prices", key, []byte(`{"px":1.23}`)); err != nil {
		t.Fatal(err)
	}

	payload, ok := c.Get("prices", key, time.Hour)
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if string(payload) != `{"px":1.23}` {
		t.Errorf("unexpected payload: %s", payload)
	}
}

func TestGetTreatsCorruptEntryAsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	key := Key("GET", "https://api.test/v1/price", nil, nil)
	if err := c.Put("prices", key, []byte(`{"px":1.23}`)); err != nil {
		t.Fatal(err)
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(entries) != 1 {
		t.Fatalf("expected one cache file, got %d", len(entries))
	}
	if err := os.WriteFile(entries[0], []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("prices", key, time.Hour); ok {
		t.Error("expected a corrupt entry to read as a miss")
	}
}

func TestGetExpiresByTTL(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	key := Key("GET", "https://api.test/v1/price", nil, nil)
	if err := c.Put("prices", key, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(entries[0], old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("prices", key, time.Minute); ok {
		t.Error("expected an expired entry to read as a miss")
	}
	if _, ok := c.Get("prices", key, 2*time.Hour); !ok {
		t.Error("expected a longer TTL to still hit")
	}
}

func TestPrefixSanitized(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Put("signal21/price", "abc", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "signal21_price_abc.json")); err != nil {
		t.Errorf("expected sanitized cache file name: %v", err)
	}
}
