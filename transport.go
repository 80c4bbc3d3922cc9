package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	retry "github.com/appleboy/go-httpretry"
)

// retryTransport routes requests through the retrying client so libraries
// that take a plain *http.Client (x/oauth2) share its retry policy.
type retryTransport struct {
	client *retry.Client
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody != nil {
		// Every attempt reads a copy from GetBody; see rewindingTransport.
		defer req.Body.Close()
	}
	return t.client.DoWithContext(req.Context(), req)
}

// rewindingTransport sends each attempt with a fresh body from GetBody. The
// retry client clones the request per attempt but shares its Body, which is
// drained after the first attempt.
type rewindingTransport struct {
	base http.RoundTripper
}

func (t *rewindingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody == nil {
		return t.base.RoundTrip(req)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	req = req.Clone(req.Context())
	req.Body = body
	return t.base.RoundTrip(req)
}

// httpClients holds one client per retry policy.
type httpClients struct {
	// credentials retries transient failures (network errors, 429, 5xx)
	// with short backoff. Used for the client-credentials grant only.
	credentials *http.Client
	// once sends every request exactly once and returns whatever response
	// arrives. Used for the authorization-code exchange, since a code is
	// single use, and for the resource call, which is dumped as received.
	once *http.Client
}

// neverRetry hands every response and error straight back to the caller.
func neverRetry(error, *http.Response) bool { return false }

// newHTTPClients builds the clients for every outbound call: TLS 1.2+,
// bounded handshakes, and retry notices on logger at debug level.
func newHTTPClients(logger *slog.Logger) (*httpClients, error) {
	baseHTTPClient := &http.Client{
		Transport: &rewindingTransport{base: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}},
	}

	onRetry := func(info retry.RetryInfo) {
		logger.Debug("retrying request",
			"attempt", info.Attempt,
			"status", info.StatusCode,
			"delay", info.Delay,
			"error", info.Err,
		)
	}

	// The realtime preset (2 retries, 100ms..1s backoff, 3s per attempt)
	// fits inside tokenExchangeTimeout.
	credentials, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(baseHTTPClient),
		retry.WithNoLogging(),
		retry.WithOnRetry(onRetry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	once, err := retry.NewClient(
		retry.WithHTTPClient(baseHTTPClient),
		retry.WithMaxRetries(0),
		retry.WithRetryableChecker(neverRetry),
		retry.WithNoLogging(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create single-attempt client: %w", err)
	}

	return &httpClients{
		credentials: &http.Client{Transport: &retryTransport{client: credentials}},
		once:        &http.Client{Transport: &retryTransport{client: once}},
	}, nil
}
