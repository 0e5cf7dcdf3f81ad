// Package httpcache stores raw JSON responses on disk, one file per
// distinct request, keyed by a content hash of the request descriptor.
package httpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Key derives a stable cache key from a request descriptor. Identical
// logical requests map to the same key regardless of the order query
// parameters were added in.
func Key(method, rawURL string, params url.Values, body []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n", strings.ToUpper(method), rawURL, params.Encode())
	if body != nil {
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type Cache struct {
	dir string
}

func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(prefix, key string) string {
	sanitized := strings.ReplaceAll(prefix, "/", "_")
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", sanitized, key))
}

// Get returns the cached payload for a key if its file is younger than ttl.
// A missing, expired or corrupt entry is a miss.
func (c *Cache) Get(prefix, key string, ttl time.Duration) (json.RawMessage, bool) {
	path := c.path(prefix, key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > ttl {
		return nil, false
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if !json.Valid(payload) {
		return nil, false
	}

	return json.RawMessage(payload), true
}

// Put overwrites the entry for a key, regardless of whether the previous
// entry was still valid.
func (c *Cache) Put(prefix, key string, payload json.RawMessage) error {
	return os.WriteFile(c.path(prefix, key), payload, 0o644)
}
