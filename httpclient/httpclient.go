// Package httpclient implements a JSON HTTP client with bounded retries
// and an optional deterministic response cache.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/stx-labs/pox-data-api/httpcache"
)

// requestTimeout bounds every single attempt, independent of retries.
const requestTimeout = 30 * time.Second

// defaultTTL is used when a request does not specify a cache TTL.
const defaultTTL = time.Hour

// RetryPolicy controls the retry behaviour of a Client. A status code in
// RetryableStatuses is retried until MaxAttempts; any other non-2xx status
// fails fast on the first attempt.
type RetryPolicy struct {
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
	MaxAttempts       int
	RetryableStatuses map[int]bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MinBackoff:  500 * time.Millisecond,
		MaxBackoff:  8 * time.Second,
		MaxAttempts: 5,
		RetryableStatuses: map[int]bool{
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
			522:                            true, // cloudflare: connection timed out
			525:                            true, // cloudflare: ssl handshake failed
		},
	}
}

// Request describes one logical JSON request. Params are part of the cache
// key in a canonical order, so insertion order never matters.
type Request struct {
	Method       string
	URL          string
	Params       url.Values
	Body         interface{}
	CachePrefix  string
	TTL          time.Duration
	ForceRefresh bool
}

type Client struct {
	client  *http.Client
	policy  RetryPolicy
	headers map[string]string
	cache   *httpcache.Cache
	sleep   func(time.Duration)
}

type Option func(*Client)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithHeaders sets default headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithCache enables the response cache for this client.
func WithCache(cache *httpcache.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{Timeout: requestTimeout},
		policy:  DefaultRetryPolicy(),
		headers: map[string]string{},
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request, consulting the cache first unless ForceRefresh is
// set. A live response is always written back to the cache for its key.
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	ttl := r.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	var key string
	if c.cache != nil {
		key = httpcache.Key(r.Method, r.URL, r.Params, body)
		if !r.ForceRefresh {
			if payload, ok := c.cache.Get(r.CachePrefix, key, ttl); ok {
				return payload, nil
			}
		}
	}

	payload, err := c.doWithRetry(ctx, r, body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		// A write failure must not silently lose a successful fetch.
		if err := c.cache.Put(r.CachePrefix, key, payload); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

func (c *Client) doWithRetry(ctx context.Context, r Request, body []byte) (json.RawMessage, error) {
	b := &backoff.Backoff{
		Min:    c.policy.MinBackoff,
		Max:    c.policy.MaxBackoff,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 1; ; attempt++ {
		payload, err := c.doOnce(ctx, r, body)
		if err == nil {
			return payload, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		if attempt >= c.policy.MaxAttempts {
			return nil, err
		}
		wait := b.Duration()
		log.
			WithFields(log.Fields{"url": r.URL, "attempt": attempt, "wait": wait, "error": err}).
			Debug("Retrying request")
		c.sleep(wait)
	}
}

func (c *Client) doOnce(ctx context.Context, r Request, body []byte) (json.RawMessage, error) {
	u := r.URL
	if len(r.Params) > 0 {
		u = u + "?" + r.Params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection failures are worth another attempt.
		return nil, &TransientError{URL: r.URL, Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransientError{URL: r.URL, Err: err}
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if !json.Valid(payload) {
			return nil, &MalformedResponseError{URL: r.URL}
		}
		return json.RawMessage(payload), nil
	}

	if c.policy.RetryableStatuses[res.StatusCode] {
		return nil, &TransientError{StatusCode: res.StatusCode, URL: r.URL, Body: string(payload)}
	}

	return nil, &PermanentError{StatusCode: res.StatusCode, URL: r.URL, Body: string(payload)}
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}
