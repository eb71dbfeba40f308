package remotewrite

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/prometheus/prompb"

	"github.com/vshulcz/hostpulse/internal/misc"
)

func fastClient(t *testing.T, serverURL, username, password string) *Client {
	t.Helper()
	c, err := New(serverURL, &http.Client{Timeout: time.Second}, username, password)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.backoff = misc.Backoff{Attempts: 3, Base: time.Millisecond, Cap: 2 * time.Millisecond}
	return c
}

func TestClientPublishSuccess(t *testing.T) {
	t.Parallel()

	type captured struct {
		method      string
		contentType string
		encoding    string
		version     string
		userAgent   string
		authUser    string
		authOK      bool
		body        []byte
	}
	var got captured

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		user, _, ok := r.BasicAuth()
		got = captured{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			encoding:    r.Header.Get("Content-Encoding"),
			version:     r.Header.Get("X-Prometheus-Remote-Write-Version"),
			userAgent:   r.Header.Get("User-Agent"),
			authUser:    user,
			authOK:      ok,
			body:        body,
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := fastClient(t, srv.URL, "agent", "s3cret")
	if err := c.Publish(context.Background(), testSamples()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got.method != http.MethodPost {
		t.Errorf("method = %s", got.method)
	}
	if got.contentType != "application/x-protobuf" {
		t.Errorf("content type = %q", got.contentType)
	}
	if got.encoding != "snappy" {
		t.Errorf("content encoding = %q", got.encoding)
	}
	if got.version != "0.1.0" {
		t.Errorf("remote write version = %q", got.version)
	}
	if got.userAgent != userAgent {
		t.Errorf("user agent = %q", got.userAgent)
	}
	if !got.authOK || got.authUser != "agent" {
		t.Errorf("basic auth user = %q ok=%v", got.authUser, got.authOK)
	}

	raw, err := snappy.Decode(nil, got.body)
	if err != nil {
		t.Fatalf("body not snappy: %v", err)
	}
	var req prompb.WriteRequest
	if err := req.Unmarshal(raw); err != nil {
		t.Fatalf("body not a write request: %v", err)
	}
	if len(req.Timeseries) != 2 {
		t.Errorf("series = %d, want 2", len(req.Timeseries))
	}
}

func TestClientPublishNoAuthHeaderWithoutCredentials(t *testing.T) {
	t.Parallel()

	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := fastClient(t, srv.URL, "", "")
	if err := c.Publish(context.Background(), testSamples()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if sawAuth.Load() {
		t.Error("auth header sent with empty credentials")
	}
}

func TestClientPublishRetryPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		statuses     []int
		wantRequests int32
		wantErr      bool
	}{
		{name: "success_first_try", statuses: []int{200}, wantRequests: 1},
		{name: "transient_then_success", statuses: []int{500, 503, 200}, wantRequests: 3},
		{name: "transient_exhausts_attempts", statuses: []int{500}, wantRequests: 3, wantErr: true},
		{name: "too_many_requests_is_transient", statuses: []int{429, 200}, wantRequests: 2},
		{name: "client_error_no_retry", statuses: []int{400}, wantRequests: 1, wantErr: true},
		{name: "unauthorized_no_retry", statuses: []int{401}, wantRequests: 1, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				idx := int(n) - 1
				if idx >= len(tc.statuses) {
					idx = len(tc.statuses) - 1
				}
				w.WriteHeader(tc.statuses[idx])
			}))
			defer srv.Close()

			c := fastClient(t, srv.URL, "", "")
			err := c.Publish(context.Background(), testSamples())

			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := calls.Load(); got != tc.wantRequests {
				t.Errorf("requests = %d, want %d", got, tc.wantRequests)
			}
		})
	}
}

func TestClientPublishConnectionRefusedRetries(t *testing.T) {
	t.Parallel()

	// Grab a port with nothing listening on it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := fastClient(t, addr, "", "")
	start := time.Now()
	err := c.Publish(context.Background(), testSamples())
	if err == nil {
		t.Fatal("expected error against closed port")
	}
	// Three attempts with millisecond backoff finish quickly; this mostly
	// guards against an unbounded retry loop.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("retries took too long: %v", elapsed)
	}
}

func TestClientPublishEncodeErrorNoRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := fastClient(t, srv.URL, "", "")
	err := c.Publish(context.Background(), nil)
	if err == nil {
		t.Fatal("expected encode error")
	}
	if calls.Load() != 0 {
		t.Error("no request must be sent when encoding fails")
	}
}

func TestClientPublishContextCancelAbortsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(t, srv.URL, "", "")
	c.backoff = misc.Backoff{Attempts: 3, Base: 100 * time.Millisecond, Cap: 100 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Publish(ctx, testSamples())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1 (backoff aborted)", got)
	}
}
