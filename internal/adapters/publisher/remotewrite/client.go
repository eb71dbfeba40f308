// Package remotewrite publishes samples to a Prometheus remote-write
// endpoint: protobuf encoding, snappy compression, and a bounded-retry
// HTTP POST with optional basic auth.
package remotewrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/vshulcz/hostpulse/internal/domain"
	"github.com/vshulcz/hostpulse/internal/misc"
	"github.com/vshulcz/hostpulse/internal/ports"
)

const (
	contentType        = "application/x-protobuf"
	contentEncoding    = "snappy"
	remoteWriteVersion = "0.1.0"
	userAgent          = "hostpulse/1.0"

	defaultTimeout = 10 * time.Second
)

// Client delivers encoded write requests over HTTP.
type Client struct {
	endpoint *url.URL
	hc       *http.Client
	username string
	password string
	backoff  misc.Backoff
}

var _ ports.Publisher = (*Client)(nil)

// New parses the endpoint URL and configures the HTTP client. Empty
// credentials mean no auth header is ever sent.
func New(address string, hc *http.Client, username, password string) (*Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("remote-write address: %w", err)
	}
	return &Client{
		endpoint: u,
		hc:       hc,
		username: username,
		password: password,
		backoff:  misc.DefaultBackoff,
	}, nil
}

// Publish encodes the samples and POSTs the payload, retrying transient
// failures within this call only; a failed report never spills into the
// next tick.
func (c *Client) Publish(ctx context.Context, samples []domain.Sample) (retErr error) {
	payload, err := encodeWriteRequest(samples)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	resp, err := c.sendWithRetry(ctx, payload)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain body: %w", err)
	}
	return checkHTTPStatus(resp)
}

func (c *Client) newWriteRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Encoding", contentEncoding)
	req.Header.Set("X-Prometheus-Remote-Write-Version", remoteWriteVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

func (c *Client) sendWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var resp *http.Response
	op := func() error {
		req, err := c.newWriteRequest(ctx, body)
		if err != nil {
			return err
		}
		r, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		if err := transientStatus(r); err != nil {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			return err
		}
		resp = r
		return nil
	}
	if err := misc.Retry(ctx, c.backoff, isRetryable, op); err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	return resp, nil
}

type httpStatusError struct {
	code int
	msg  string
}

func (e *httpStatusError) Error() string {
	return e.msg
}

// transientStatus converts retryable status codes into errors so the retry
// loop replays them; everything else passes through for final
// classification.
func transientStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusInternalServerError ||
		resp.StatusCode == http.StatusTooManyRequests {
		return &httpStatusError{code: resp.StatusCode, msg: fmt.Sprintf("server status: %s", resp.Status)}
	}
	return nil
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &httpStatusError{code: resp.StatusCode, msg: fmt.Sprintf("server status: %s", resp.Status)}
}

// isRetryable classifies 5xx/429 and connection-level failures as
// transient; 4xx and structural errors are permanent for the tick.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError ||
			se.code == http.StatusTooManyRequests
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
