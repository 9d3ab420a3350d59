package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/roomaudit/internal/httputil"
	"github.com/lox/roomaudit/internal/metrics"
)

const DefaultPageSize = 500

// Backend loads rooms and readings from the room telemetry HTTP API:
// GET /api/rooms and GET /api/readings?limit=N&skip=M, paged until a short
// page is returned.
type Backend struct {
	baseURL    string
	pageSize   int
	client     *http.Client
	loc        *time.Location
	maxElapsed time.Duration
}

func NewBackend(baseURL string, pageSize int, loc *time.Location) *Backend {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Backend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		client:     httputil.NewClient(),
		loc:        loc,
		maxElapsed: 2 * time.Minute,
	}
}

func (b *Backend) Load(ctx context.Context) (*Dataset, error) {
	d := newDataset()

	body, err := b.get(ctx, "rooms", "/api/rooms", nil)
	if err != nil {
		return nil, err
	}
	if err := ParseRooms(body, d); err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}

	for skip := 0; ; skip += b.pageSize {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(b.pageSize))
		q.Set("skip", strconv.Itoa(skip))
		body, err := b.get(ctx, "readings", "/api/readings", q)
		if err != nil {
			return nil, err
		}
		n, err := ParseReadings(body, b.loc, skip, d)
		if err != nil {
			return nil, fmt.Errorf("readings page at %d: %w", skip, err)
		}
		if n < b.pageSize {
			break
		}
	}

	d.logSummary(b.baseURL)
	return d, nil
}

func (b *Backend) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body []byte
	operation := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", endpoint, err))
		}
		resp, err := b.client.Do(req)
		metrics.SourceLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.SourceCallsTotal.WithLabelValues(endpoint, "error").Inc()
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("fetch %s: %w", endpoint, err)
		}
		defer resp.Body.Close()
		metrics.SourceCallsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", endpoint, resp.StatusCode, string(msg)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = b.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
