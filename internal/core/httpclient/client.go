// Package httpclient configures the HTTP client used to call the recycler backend.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Options struct {
	Timeout time.Duration
	// RPS <= 0 disables client-side rate limiting.
	RPS   float64
	Burst int
}

// NewOutbound creates a new outbound http client
func NewOutbound(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.RPS > 0 {
		rt = Limit(rt, opts.RPS, opts.Burst)
	}
	return &http.Client{
		Transport: rt,
		Timeout:   opts.Timeout,
	}
}

// Limit wraps next so that requests wait for a token before being sent.
func Limit(next http.RoundTripper, rps float64, burst int) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if burst <= 0 {
		burst = 1
	}
	return &limitedTransport{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

type limitedTransport struct {
	next http.RoundTripper
	lim  *rate.Limiter
}

func (t *limitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.lim.Wait(r.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.RoundTrip(r)
}
