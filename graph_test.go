package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallResource_SendsOneGetWithRequiredHeaders(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1.0/me/onenote/notebooks", r.URL.Path)
		assert.Equal(t, []string{"Bearer tok123"}, r.Header.Values("Authorization"))
		assert.Equal(t, []string{"application/json"}, r.Header.Values("Content-Type"))
		assert.Len(t, r.Header.Values("Client-Request-Id"), 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"value":[]}`)
	}))
	defer srv.Close()

	tx, err := CallResource(
		context.Background(),
		srv.Client(),
		&BearerToken{AccessToken: "tok123", TokenType: "Bearer"},
		srv.URL+"/v1.0/me/onenote/notebooks",
	)
	require.NoError(t, err)

	assert.EqualValues(t, 1, hits.Load())
	assert.True(t, tx.OK())
	assert.Equal(t, `{"value":[]}`, string(tx.Body))
}

func TestCallResource_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"30108","message":"OneDrive for Business for this user account cannot be retrieved."}}`)
	}))
	defer srv.Close()

	tx, err := CallResource(context.Background(), srv.Client(), &BearerToken{AccessToken: "tok"}, srv.URL)
	require.NoError(t, err)
	assert.False(t, tx.OK())
	assert.Equal(t, http.StatusNotFound, tx.Response.StatusCode)
}

func TestCallResource_RefusesEmptyToken(t *testing.T) {
	_, err := CallResource(context.Background(), http.DefaultClient, &BearerToken{}, "http://unused.invalid")
	assert.ErrorIs(t, err, ErrMissingAccessToken)

	_, err = CallResource(context.Background(), http.DefaultClient, nil, "http://unused.invalid")
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestCallResource_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := CallResource(context.Background(), http.DefaultClient, &BearerToken{AccessToken: "tok"}, url)
	assert.Error(t, err)
}

func TestWriteTransaction_Format(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://graph.microsoft.com/v1.0/me/onenote/notebooks", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok123")
	req.Header.Set("Content-Type", "application/json")

	resp := &http.Response{
		Proto:      "HTTP/1.1",
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
	tx := &Transaction{Request: req, Response: resp, Body: []byte(`{"error":{"code":"30108"}}`)}

	var out bytes.Buffer
	require.NoError(t, writeTransaction(&out, tx))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "< GET /v1.0/me/onenote/notebooks HTTP/1.1", lines[0])
	assert.Equal(t, "< Host: graph.microsoft.com", lines[1])
	assert.Contains(t, lines, "< Authorization: Bearer tok123")
	assert.Contains(t, lines, "< Content-Type: application/json")
	assert.Contains(t, lines, "> HTTP/1.1 404 Not Found")
	assert.Contains(t, lines, "> Content-Type: application/json")
	assert.Contains(t, lines, `{"error":{"code":"30108"}}`)
	assert.True(t, strings.HasSuffix(out.String(), "}\n"))
	assert.NotContains(t, out.String(), "\r")
}

func TestWriteTransaction_EmptyBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://graph.microsoft.com/v1.0/me/onenote/notebooks", nil)
	require.NoError(t, err)
	resp := &http.Response{Proto: "HTTP/1.1", StatusCode: 204, Status: "204 No Content", Header: http.Header{}}

	var out bytes.Buffer
	require.NoError(t, writeTransaction(&out, &Transaction{Request: req, Response: resp}))
	assert.True(t, strings.HasSuffix(out.String(), "> HTTP/1.1 204 No Content\n> \n"), out.String())
}

func TestCallResource_ServerErrorIsSentOnceAndDumped(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"code":"serviceNotAvailable","message":"Try again later."}}`)
	}))
	defer srv.Close()

	clients, err := newHTTPClients(discardLogger())
	require.NoError(t, err)

	start := time.Now()
	tx, err := CallResource(
		context.Background(),
		clients.once,
		&BearerToken{AccessToken: "tok123"},
		srv.URL+"/v1.0/me/onenote/notebooks",
	)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, http.StatusServiceUnavailable, tx.Response.StatusCode)

	var out bytes.Buffer
	require.NoError(t, writeTransaction(&out, tx))
	assert.Contains(t, out.String(), "> HTTP/1.1 503 Service Unavailable")
	assert.Contains(t, out.String(), "serviceNotAvailable")
}
