package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const resourceCallTimeout = 30 * time.Second

// Transaction is one request/response pair against the Graph API.
type Transaction struct {
	Request  *http.Request
	Response *http.Response
	// Body is the fully read response body; Response.Body is closed.
	Body []byte
}

// CallResource issues a single authenticated GET to resourceURL. Non-2xx
// responses are returned as a Transaction, not as an error.
func CallResource(
	ctx context.Context,
	client *http.Client,
	token *BearerToken,
	resourceURL string,
) (*Transaction, error) {
	if token == nil || token.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	ctx, cancel := context.WithTimeout(ctx, resourceCallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Transaction{Request: req, Response: resp, Body: body}, nil
}

// OK reports whether the response status is 2xx.
func (tx *Transaction) OK() bool {
	return tx.Response.StatusCode >= 200 && tx.Response.StatusCode < 300
}
