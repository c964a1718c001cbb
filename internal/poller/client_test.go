package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestClient_ConnectionReuse verifies that sequential polls reuse the pooled
// connection to the backend.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil, 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5
	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		resp := client.Get(ctx, "/reading", nil)
		if resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

func TestClient_JoinsPathAndQuery(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RequestURI()
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/api/", nil, time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	resp := client.Get(context.Background(), "/reading", url.Values{"since": {"3600"}})
	if resp.Error != nil {
		t.Fatalf("Get() error = %v", resp.Error)
	}
	if got != "/api/reading?since=3600" {
		t.Errorf("request URI = %q, want /api/reading?since=3600", got)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(server.URL, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	resp := client.Get(context.Background(), "/water", nil)
	if resp.Error == nil {
		t.Error("Get() expected timeout error, got nil")
	}
}

// TestClient_HungRequestsDoNotStarveLaterOnes verifies that without a request
// timeout, requests that never resolve do not hold back later requests to a
// recovered backend.
func TestClient_HungRequestsDoNotStarveLaterOnes(t *testing.T) {
	const hung = defaultMaxConnsPerHost

	var seen atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen.Add(1) <= hung {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(server.URL, nil, 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	hungCtx, cancelHung := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancelHung()

	for i := 0; i < hung; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = client.Get(hungCtx, "/reading", nil)
		}()
	}

	deadline := time.Now().Add(3 * time.Second)
	for seen.Load() < hung {
		if time.Now().After(deadline) {
			t.Fatalf("backend saw %d requests, want %d hung", seen.Load(), hung)
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp := client.Get(ctx, "/reading", nil)
	if resp.Error != nil {
		t.Fatalf("request after %d hung requests failed: %v (backend saw %d)", hung, resp.Error, seen.Load())
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

func TestNewClient_ConnectionCapFollowsTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    int
	}{
		{"no timeout", 0, 0},
		{"with timeout", time.Second, defaultMaxConnsPerHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient("http://localhost:5500", nil, tt.timeout)
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			transport := client.httpClient.Transport.(*http.Transport)
			if transport.MaxConnsPerHost != tt.want {
				t.Errorf("MaxConnsPerHost = %d, want %d", transport.MaxConnsPerHost, tt.want)
			}
		})
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	tests := []string{
		"",
		"localhost:5500",
		"ftp://example.com",
		"http://",
		"://bad",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			if _, err := NewClient(raw, nil, 0); err == nil {
				t.Errorf("NewClient(%q) expected error, got nil", raw)
			}
		})
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client, err := NewClient("http://localhost:5500", nil, 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client

	client.Close()
}
