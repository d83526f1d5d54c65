package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultUserAgent identifies as a Clash client; many panels only send
// the usage header to clients they recognise.
const DefaultUserAgent = "ClashForAndroid/2.5.12"

// maxBodyBytes caps one subscription body.
var maxBodyBytes = 32 << 20

type Response struct {
	URL         string
	Body        []byte
	Header      http.Header
	ContentType string
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   time.Duration

	group singleflight.Group
}

func New(timeout time.Duration, userAgent string, retries int, backoff time.Duration) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if retries < 1 {
		retries = 1
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retries:   retries,
		backoff:   backoff,
	}
}

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

// transportError is a failure talking to the server: dial, TLS, timeout
// or a broken body.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

var ErrBodyTooLarge = errors.New("response body too large")

// retryable is true for 5xx, 429 and transport errors. Bad URLs, other
// statuses, oversized bodies and cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	var te *transportError
	return errors.As(err, &te)
}

// Fetch downloads url, retrying with exponential backoff. Concurrent
// calls for the same url share one download.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	v, err, _ := f.group.Do(url, func() (any, error) {
		return f.fetchWithRetry(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (*Response, error) {
	log := slog.With("url", url)
	delay := f.backoff

	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		resp, err := f.fetchOnce(ctx, url)
		if err == nil {
			if attempt > 1 {
				log.Info("fetch_retry_succeeded", "attempt", attempt)
			}
			return resp, nil
		}
		lastErr = err
		if attempt == f.retries || !retryable(err) {
			break
		}

		wait := delay + time.Duration(rand.Float64()*0.25*float64(delay))
		log.Warn("fetch_failed_retrying", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBodyBytes)+1))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxBodyBytes)
	}

	return &Response{
		URL:         url,
		Body:        body,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// ReadFile loads a subscription body saved on disk. There are no headers,
// so no usage data.
func ReadFile(path string) (*Response, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Response{URL: path, Body: body, Header: http.Header{}}, nil
}
