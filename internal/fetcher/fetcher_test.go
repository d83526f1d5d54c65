package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchSendsUserAgentAndKeepsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Header().Set("Subscription-Userinfo", "upload=1; download=2; total=3")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	f := New(5*time.Second, "", 1, time.Millisecond)
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "body" {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.Header.Get("Subscription-Userinfo") == "" {
		t.Fatalf("usage header lost")
	}
	if resp.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", resp.ContentType)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(5*time.Second, "test-agent", 3, time.Millisecond)
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "ok" || calls.Load() != 3 {
		t.Fatalf("expected success on third attempt, got %q after %d calls", resp.Body, calls.Load())
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(5*time.Second, "", 3, time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL)

	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 should not be retried, got %d calls", calls.Load())
	}
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(5*time.Second, "", 2, time.Millisecond)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub.txt")
	if err := os.WriteFile(path, []byte("ss://x"), 0o644); err != nil {
		t.Fatal(err)
	}
	resp, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(resp.Body) != "ss://x" || resp.Header == nil || resp.URL != path {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	defer func(n int) { maxBodyBytes = n }(maxBodyBytes)
	maxBodyBytes = 8

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	f := New(5*time.Second, "", 3, time.Millisecond)
	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("oversized body should not be retried, got %d calls", calls.Load())
	}

	maxBodyBytes = 10
	if resp, err := f.Fetch(context.Background(), srv.URL); err != nil || len(resp.Body) != 10 {
		t.Fatalf("body at the limit must pass, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	f := New(time.Second, "", 3, time.Millisecond)
	_, err := f.fetchOnce(context.Background(), "http://bad host/")
	if err == nil || retryable(err) {
		t.Fatalf("invalid url must not be retried: %v", err)
	}

	cases := []struct {
		err  error
		want bool
	}{
		{&statusError{code: 503}, true},
		{&statusError{code: 429}, true},
		{&statusError{code: 404}, false},
		{&transportError{err: errors.New("connection reset")}, true},
		{&transportError{err: context.Canceled}, false},
		{ErrBodyTooLarge, false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Fatalf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
