package edgar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ChenghaoMou/edgar-crawler/internal/cache"
	"github.com/ChenghaoMou/edgar-crawler/internal/fetch"
)

// stubFetcher serves canned bodies and scripted failures, recording every
// call. A failure count of -1 fails forever; n > 0 fails n times before
// succeeding.
type stubFetcher struct {
	mu       sync.Mutex
	bodies   map[string][]byte
	failures map[string]int
	calls    []string
	forced   []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies:   make(map[string][]byte),
		failures: make(map[string]int),
	}
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return s.fetch(ctx, url, false)
}

func (s *stubFetcher) FetchForce(ctx context.Context, url string) ([]byte, error) {
	return s.fetch(ctx, url, true)
}

func (s *stubFetcher) fetch(_ context.Context, url string, force bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, url)
	if force {
		s.forced = append(s.forced, url)
	}

	switch n := s.failures[url]; {
	case n < 0:
		return nil, fmt.Errorf("stub failure for %s", url)
	case n > 0:
		s.failures[url] = n - 1
		return nil, fmt.Errorf("stub failure for %s", url)
	}

	body, ok := s.bodies[url]
	if !ok {
		return nil, fmt.Errorf("stub has no body for %s", url)
	}
	return body, nil
}

// callCount returns how many times url was requested in total.
func (s *stubFetcher) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, c := range s.calls {
		if c == url {
			count++
		}
	}
	return count
}

// forcedCount returns how many times url was requested in force mode.
func (s *stubFetcher) forcedCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, c := range s.forced {
		if c == url {
			count++
		}
	}
	return count
}

// totalCalls returns the total number of fetches across all URLs.
func (s *stubFetcher) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// TestCachedFetcher tests the cache-over-client wiring end to end.
func TestCachedFetcher(t *testing.T) {
	t.Parallel()

	t.Run("repeat fetches answer from cache", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			fmt.Fprint(w, "document body")
		}))
		defer srv.Close()

		c, err := cache.Open(t.TempDir(), cache.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open cache: %v", err)
		}
		defer c.Close()

		client := fetch.NewClient(srv.Client(), fetch.WithRate(1000), fetch.WithAttempts(1))
		f := NewCachedFetcher(c, client)

		ctx := context.Background()
		for range 3 {
			body, err := f.Fetch(ctx, srv.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(body) != "document body" {
				t.Errorf("body = %q, want %q", body, "document body")
			}
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("expected 1 network request for 3 fetches, got %d", got)
		}
	})

	t.Run("force fetch goes back to the network", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "version %d", requests.Add(1))
		}))
		defer srv.Close()

		c, err := cache.Open(t.TempDir(), cache.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open cache: %v", err)
		}
		defer c.Close()

		client := fetch.NewClient(srv.Client(), fetch.WithRate(1000), fetch.WithAttempts(1))
		f := NewCachedFetcher(c, client)

		ctx := context.Background()
		if _, err := f.Fetch(ctx, srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		body, err := f.FetchForce(ctx, srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != "version 2" {
			t.Errorf("force fetch body = %q, want %q", body, "version 2")
		}

		// The forced value replaced the cached one
		body, err = f.Fetch(ctx, srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != "version 2" {
			t.Errorf("cached body after force = %q, want %q", body, "version 2")
		}
		if got := requests.Load(); got != 2 {
			t.Errorf("expected 2 network requests, got %d", got)
		}
	})

	t.Run("failures are never cached", func(t *testing.T) {
		t.Parallel()

		var healthy atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !healthy.Load() {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, "recovered")
		}))
		defer srv.Close()

		c, err := cache.Open(t.TempDir(), cache.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open cache: %v", err)
		}
		defer c.Close()

		client := fetch.NewClient(srv.Client(), fetch.WithRate(1000), fetch.WithAttempts(1))
		f := NewCachedFetcher(c, client)

		ctx := context.Background()
		if _, err := f.Fetch(ctx, srv.URL); err == nil {
			t.Fatal("expected error while server is unhealthy")
		}

		healthy.Store(true)
		body, err := f.Fetch(ctx, srv.URL)
		if err != nil {
			t.Fatalf("unexpected error after recovery: %v", err)
		}
		if string(body) != "recovered" {
			t.Errorf("body = %q, want %q", body, "recovered")
		}
	})
}
